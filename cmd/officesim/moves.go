package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/teslashibe/go-reachy-office/pkg/motion"
)

func openLibrary(c *cli.Context) (*motion.Library, error) {
	dir := appConfig(c).Motion.Dir
	if d := c.String(flagDir); d != "" {
		dir = d
	}
	lib := motion.NewLibrary(dir)
	if _, err := lib.LoadDir(); err != nil {
		return nil, err
	}
	return lib, nil
}

func parseFormat(s string) (motion.Format, error) {
	switch f := motion.Format(s); f {
	case motion.FormatJSON, motion.FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", motion.ErrUnsupportedFormat, s)
	}
}

// MovesListAction prints the library, filtered by an optional query.
func MovesListAction(c *cli.Context) error {
	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	names := lib.List()
	if q := c.Args().First(); q != "" {
		names = lib.Search(q)
	}
	for _, name := range names {
		m, err := lib.Get(name)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, m.String())
	}
	return nil
}

// MovesShowAction writes one move to stdout.
func MovesShowAction(c *cli.Context) error {
	f, err := parseFormat(c.String(flagFormat))
	if err != nil {
		return err
	}
	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	m, err := lib.Get(c.Args().First())
	if err != nil {
		return err
	}
	return m.Encode(c.App.Writer, f)
}

// MovesConvertAction saves a move next to the original in another format.
func MovesConvertAction(c *cli.Context) error {
	f, err := parseFormat(c.String(flagFormat))
	if err != nil {
		return err
	}
	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	m, err := lib.Get(c.Args().First())
	if err != nil {
		return err
	}
	path, err := lib.Save(m, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
	return nil
}
