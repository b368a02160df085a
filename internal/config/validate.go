package config

import (
	"errors"
	"fmt"
	"math"

	"cuelang.org/go/cue/token"
	"github.com/samber/lo"
)

// FieldError reports one invalid configuration field.
type FieldError struct {
	Field   string
	Message string
	Pos     token.Pos // CUE source position if available
}

func (e *FieldError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FieldErrors returns every *FieldError in err's tree, in order.
func FieldErrors(err error) []*FieldError {
	var out []*FieldError
	var walk func(error)
	walk = func(err error) {
		switch e := err.(type) {
		case nil:
		case *FieldError:
			out = append(out, e)
		case interface{ Unwrap() []error }:
			for _, inner := range e.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(e.Unwrap())
		}
	}
	walk(err)
	return out
}

// Validate checks every field and reports all problems at once, joined with
// errors.Join.
func (e Experiment) Validate() error {
	var errs []error
	check := func(ok bool, field, format string, args ...any) {
		if !ok {
			errs = append(errs, &FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
		}
	}
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

	check(e.Subject >= 0, "subject", "must be >= 0, got %d", e.Subject)
	check(e.Trial >= 0, "trial", "must be >= 0, got %d", e.Trial)
	check(e.MaxSteps == nil || *e.MaxSteps >= 0, "max_steps", "must be >= 0, got %d", lo.FromPtr(e.MaxSteps))
	check(e.Avatars >= 0, "avatars", "must be >= 0, got %d", e.Avatars)
	check(e.SampleInterval >= 1, "sample_interval", "must be >= 1, got %d", e.SampleInterval)

	s := e.Simulation
	check(s.TimeStep > 0 && finite(s.TimeStep), "simulation.time_step", "must be > 0, got %v", s.TimeStep)
	check(s.NeighborDistance >= 0, "simulation.neighbor_distance", "must be >= 0, got %v", s.NeighborDistance)
	check(s.MaxNeighbors >= 0, "simulation.max_neighbors", "must be >= 0, got %d", s.MaxNeighbors)
	check(s.TimeHorizon > 0, "simulation.time_horizon", "must be > 0, got %v", s.TimeHorizon)
	check(s.TimeHorizonObstacle >= 0, "simulation.time_horizon_obstacle", "must be >= 0, got %v", s.TimeHorizonObstacle)
	check(s.Radius >= 0, "simulation.radius", "must be >= 0, got %v", s.Radius)
	check(s.MaxSpeed >= 0, "simulation.max_speed", "must be >= 0, got %v", s.MaxSpeed)

	b := e.Bounds
	check(finite(b.MinX) && finite(b.MaxX) && b.MaxX > b.MinX, "bounds", "max_x (%v) must exceed min_x (%v)", b.MaxX, b.MinX)
	check(finite(b.MinY) && finite(b.MaxY) && b.MaxY > b.MinY, "bounds", "max_y (%v) must exceed min_y (%v)", b.MaxY, b.MinY)

	for i, g := range e.Goals {
		check(finite(g.X) && finite(g.Y), fmt.Sprintf("goals[%d]", i), "position must be finite, got (%v, %v)", g.X, g.Y)
	}

	return errors.Join(errs...)
}
