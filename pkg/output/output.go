// Package output prints user-facing status lines and tables for the CLIs.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
	headerColor  = color.New(color.FgWhite, color.Bold)
)

// Printer writes results to Out and problems to Err.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// New creates a Printer. Nil writers default to stdout and stderr.
func New(out, errOut io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Printer{Out: out, Err: errOut}
}

func (p *Printer) Success(format string, a ...interface{}) {
	successColor.Fprintf(p.Out, "✓ "+format+"\n", a...)
}

func (p *Printer) Error(format string, a ...interface{}) {
	errorColor.Fprintf(p.Err, "✗ "+format+"\n", a...)
}

func (p *Printer) Info(format string, a ...interface{}) {
	infoColor.Fprintf(p.Out, format+"\n", a...)
}

func (p *Printer) Warn(format string, a ...interface{}) {
	warnColor.Fprintf(p.Err, "⚠ "+format+"\n", a...)
}

type Table struct {
	headers []string
	rows    [][]string
}

func NewTable(headers []string) *Table {
	return &Table{
		headers: headers,
		rows:    [][]string{},
	}
}

func (t *Table) AddRow(row []string) {
	t.rows = append(t.rows, row)
}

// Render writes the table to w with columns padded to the widest cell.
func (t *Table) Render(w io.Writer) {
	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = len(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for i, header := range t.headers {
		headerColor.Fprintf(w, "%-*s  ", widths[i], header)
	}
	fmt.Fprintln(w)

	for i := range t.headers {
		fmt.Fprint(w, strings.Repeat("-", widths[i])+"  ")
	}
	fmt.Fprintln(w)

	for _, row := range t.rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			fmt.Fprintf(w, "%-*s  ", widths[i], cell)
		}
		fmt.Fprintln(w)
	}
}
