package recorder

import (
	"context"

	"github.com/roach88/crowdreplay/internal/engine"
)

type tee []engine.Recorder

// Tee returns a recorder that forwards each record to every non-nil rec in
// order, stopping at the first error.
func Tee(recs ...engine.Recorder) engine.Recorder {
	t := make(tee, 0, len(recs))
	for _, r := range recs {
		if r != nil {
			t = append(t, r)
		}
	}
	return t
}

func (t tee) Record(ctx context.Context, rec engine.TickRecord) error {
	for _, r := range t {
		if err := r.Record(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
