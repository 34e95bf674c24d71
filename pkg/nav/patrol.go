package nav

import (
	"fmt"
	"sort"
)

// PatrolStop is one entry of a daily patrol: at Minute (minutes after
// midnight) go to Location and perform Action.
type PatrolStop struct {
	Minute   float64 `json:"minute" yaml:"minute"`
	Location string  `json:"location" yaml:"location"`
	Action   string  `json:"action" yaml:"action"`
}

// Clock formats the stop time as HH:MM.
func (s PatrolStop) Clock() string {
	m := int(s.Minute)
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Patrol walks through a time-ordered schedule. Each stop fires once.
type Patrol struct {
	stops []PatrolStop
	next  int
}

// NewPatrol sorts the stops by time.
func NewPatrol(stops []PatrolStop) *Patrol {
	s := append([]PatrolStop(nil), stops...)
	sort.SliceStable(s, func(i, j int) bool { return s[i].Minute < s[j].Minute })
	return &Patrol{stops: s}
}

// DefaultPatrol is a working-day round of the default office.
func DefaultPatrol() *Patrol {
	return NewPatrol([]PatrolStop{
		{Minute: 8*60 + 50, Location: "entrance", Action: "greet arrivals"},
		{Minute: 9*60 - 5, Location: "meeting_room", Action: "standup reminder"},
		{Minute: 9*60 + 30, Location: "lounge", Action: "patrol"},
		{Minute: 10*60 - 5, Location: "project_room", Action: "weekly sync reminder"},
		{Minute: 12 * 60, Location: "kitchen", Action: "lunch patrol"},
		{Minute: 15 * 60, Location: "desks", Action: "afternoon patrol"},
		{Minute: 17*60 + 30, Location: "charger", Action: "return to dock"},
	})
}

// Stops returns the schedule in time order.
func (p *Patrol) Stops() []PatrolStop {
	return append([]PatrolStop(nil), p.stops...)
}

// Due returns the next stop whose time has come, advancing past it.
func (p *Patrol) Due(minute float64) (PatrolStop, bool) {
	if p.next >= len(p.stops) {
		return PatrolStop{}, false
	}
	s := p.stops[p.next]
	if minute < s.Minute {
		return PatrolStop{}, false
	}
	p.next++
	return s, true
}

// Reset rewinds to the first stop, e.g. at the start of a new day.
func (p *Patrol) Reset() {
	p.next = 0
}

// Remaining returns how many stops have not fired yet.
func (p *Patrol) Remaining() int {
	return len(p.stops) - p.next
}
