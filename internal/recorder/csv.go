package recorder

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/roach88/crowdreplay/internal/engine"
)

// CSV writes records as comma-separated rows, header first.
type CSV struct {
	w      *csv.Writer
	closer io.Closer
	rows   int
	closed bool
}

var _ engine.Recorder = (*CSV)(nil)

// NewCSV writes the header to w and returns a recorder appending to it.
// Close flushes but does not close w.
func NewCSV(w io.Writer) (*CSV, error) {
	c := &CSV{w: csv.NewWriter(w)}
	if err := c.w.Write(Header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	return c, nil
}

// CreateCSV creates (or truncates) the file at path and writes the header.
func CreateCSV(path string) (*CSV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	c, err := NewCSV(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	c.closer = f
	return c, nil
}

// Record appends one row.
func (c *CSV) Record(_ context.Context, rec engine.TickRecord) error {
	if err := c.w.Write(Row(rec)); err != nil {
		return err
	}
	c.rows++
	return nil
}

// Rows returns the number of records written.
func (c *CSV) Rows() int { return c.rows }

// Flush writes buffered rows to the underlying writer.
func (c *CSV) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

// Close flushes buffered rows and closes the file opened by CreateCSV.
// Calls after the first return nil.
func (c *CSV) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	err := c.Flush()
	if c.closer != nil {
		err = errors.Join(err, c.closer.Close())
		c.closer = nil
	}
	return err
}
