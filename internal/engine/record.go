package engine

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"
)

// TickRecord is the state of one agent at one sampled tick.
type TickRecord struct {
	Step     int // tick index
	AgentID  int // oracle handle
	Position mgl64.Vec2
	Velocity mgl64.Vec2
	Speed    float64 // |Velocity|
}

// Recorder persists tick records in the order they are emitted.
type Recorder interface {
	Record(ctx context.Context, rec TickRecord) error
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(ctx context.Context, rec TickRecord) error

// Record calls f(ctx, rec).
func (f RecorderFunc) Record(ctx context.Context, rec TickRecord) error { return f(ctx, rec) }

// Collector keeps every record in memory.
type Collector struct {
	Records []TickRecord
}

// Record appends rec.
func (c *Collector) Record(_ context.Context, rec TickRecord) error {
	c.Records = append(c.Records, rec)
	return nil
}

// Discard drops every record.
var Discard Recorder = RecorderFunc(func(context.Context, TickRecord) error { return nil })
