package trajectory

import (
	"errors"
	"log/slog"
)

// Fallback serves trajectories from Primary and, when Primary reports
// ErrDataUnavailable, from Secondary. Each substitution is logged as a
// degraded-mode warning and remembered; other errors are returned as is.
type Fallback struct {
	Primary   Source
	Secondary Source

	degraded []string
}

// NewFallback returns a Fallback over the two sources.
func NewFallback(primary, secondary Source) *Fallback {
	return &Fallback{Primary: primary, Secondary: secondary}
}

// Generate implements Source.
func (f *Fallback) Generate(id Identity) (*Trajectory, error) {
	tr, err := f.Primary.Generate(id)
	if err == nil {
		return tr, nil
	}
	if !errors.Is(err, ErrDataUnavailable) {
		return nil, err
	}

	slog.Warn("trajectory data unavailable, falling back to synthetic data",
		"agent", id.Label(),
		"error", err,
	)
	f.degraded = append(f.degraded, id.Label())
	return f.Secondary.Generate(id)
}

// Degraded lists the labels served by Secondary, in request order.
func (f *Fallback) Degraded() []string {
	out := make([]string, len(f.degraded))
	copy(out, f.degraded)
	return out
}
