// Package stdout implements a Writer that prints output rows as an aligned table.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ArionMiles/txextract/pkg/api"
)

// Writer prints records to an io.Writer, one row per line.
type Writer struct {
	out io.Writer
}

// New returns a writer printing to out, or to os.Stdout when out is nil.
func New(out io.Writer) *Writer {
	if out == nil {
		out = os.Stdout
	}
	return &Writer{out: out}
}

// Write prints a header and then each record as it arrives. The table is
// flushed when the channel closes or ctx is canceled.
func (w *Writer) Write(ctx context.Context, in <-chan *api.Record) error {
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.ToUpper(strings.Join(api.Columns, "\t"))); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			_ = tw.Flush()
			return ctx.Err()
		case r, ok := <-in:
			if !ok {
				return tw.Flush()
			}
			if _, err := fmt.Fprintln(tw, strings.Join(r.Row.Strings(), "\t")); err != nil {
				return err
			}
		}
	}
}
