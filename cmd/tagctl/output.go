package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"
)

const (
	formatAuto = "auto"
	formatJSON = "json"
	formatText = "text"
)

// printer renders command results as JSON or as text tables.
type printer struct {
	w    io.Writer
	json bool
}

// newPrinter resolves format against w. In auto mode a terminal gets text
// and anything else gets JSON.
func newPrinter(w io.Writer, format string) (*printer, error) {
	switch format {
	case formatJSON:
		return &printer{w: w, json: true}, nil
	case formatText:
		return &printer{w: w}, nil
	case formatAuto, "":
		return &printer{w: w, json: !isTerminal(w)}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want auto, json or text)", format)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// table prints rows under header in text mode, or v as JSON.
func (p *printer) table(v interface{}, header []string, rows [][]string) error {
	if p.json {
		return p.encode(v)
	}

	table := tablewriter.NewWriter(p.w)
	table.Header(cells(header)...)
	for _, row := range rows {
		if err := table.Append(cells(row)...); err != nil {
			return err
		}
	}
	return table.Render()
}

// value prints a single result: v as JSON, or text as a line.
func (p *printer) value(v interface{}, text string) error {
	if p.json {
		return p.encode(v)
	}
	_, err := fmt.Fprintln(p.w, text)
	return err
}

func (p *printer) encode(v interface{}) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cells(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, c := range row {
		out[i] = c
	}
	return out
}
