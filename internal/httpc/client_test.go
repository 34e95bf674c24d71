package httpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		var in map[string]float64
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]float64{"echo": in["yaw"]})
	}))
	defer srv.Close()

	var out map[string]float64
	err := PostJSON(context.Background(), srv.Client(), srv.URL, map[string]float64{"yaw": 0.25}, &out)
	if err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if out["echo"] != 0.25 {
		t.Errorf("echo = %v, want 0.25", out["echo"])
	}
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "motors off", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := GetJSON(context.Background(), srv.Client(), srv.URL, nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d", se.Code)
	}
	if se.Body != "motors off" {
		t.Errorf("body = %q", se.Body)
	}
}
