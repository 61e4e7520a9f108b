package alerts

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Writer handles alert output.
type Writer interface {
	WriteAlert(alert *Alert) error
}

// WriterFunc is an adapter to allow functions to be used as Writers.
type WriterFunc func(*Alert) error

// WriteAlert calls the function.
func (f WriterFunc) WriteAlert(alert *Alert) error {
	return f(alert)
}

// Discard is a Writer that drops all alerts.
var Discard Writer = WriterFunc(func(*Alert) error { return nil })

// NewWriter writes alerts as plain lines to w, colored when w is a
// terminal and noColor is false.
func NewWriter(w io.Writer, noColor bool) Writer {
	color := !noColor && isTerminal(w)
	return WriterFunc(func(a *Alert) error {
		line := a.String()
		if color {
			line = a.Level.color() + line + reset
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		for _, d := range a.Details {
			if _, err := fmt.Fprintf(w, "   %s\n", d); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteAll writes every alert, stopping at the first write error.
func WriteAll(w Writer, alerts []*Alert) error {
	for _, a := range alerts {
		if err := w.WriteAlert(a); err != nil {
			return err
		}
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
