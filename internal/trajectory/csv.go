package trajectory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/text/unicode/norm"
)

// CSVLoader reads recorded trajectories from Dir, one file per agent named
// "<label>.csv" (e.g. "participant.csv", "A3P.csv").
//
// File format:
//
//	tick,x,y[,speed,heading]
//	0,15.0,10.0,1.2,1.5708
//	1,15.01,10.2,1.21,1.5712
//
// Ticks must start at 0 and be contiguous. When speed or heading columns are
// absent they are derived from consecutive positions using TimeStep.
// Any problem with a file is reported as a DataUnavailableError.
//
// Recordings longer than MaxSteps are truncated with a warning. A MaxSteps of
// 0 yields empty trajectories, the same as the synthetic generator.
type CSVLoader struct {
	Dir      string
	TimeStep float64
	MaxSteps int // NoStepLimit keeps every sample
}

// NoStepLimit disables truncation in CSVLoader.
const NoStepLimit = -1

// NewCSVLoader returns a loader rooted at dir.
func NewCSVLoader(dir string, dt float64, maxSteps int) *CSVLoader {
	return &CSVLoader{Dir: dir, TimeStep: dt, MaxSteps: maxSteps}
}

// Path returns the file consulted for id. Labels are NFC-normalized so that
// names typed on different platforms resolve to the same file.
func (l *CSVLoader) Path(id Identity) string {
	return filepath.Join(l.Dir, norm.NFC.String(id.Label())+".csv")
}

// Generate implements Source.
func (l *CSVLoader) Generate(id Identity) (*Trajectory, error) {
	if id.Role == RoleGoal {
		return nil, fmt.Errorf("csv loader: no trajectory for %s", id.Role)
	}
	path := l.Path(id)
	unavailable := func(err error) error {
		return &DataUnavailableError{Label: id.Label(), Path: path, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, unavailable(err)
	}
	defer f.Close()

	samples, dropped, err := l.parse(f)
	if err != nil {
		return nil, unavailable(err)
	}
	if len(samples) == 0 && dropped == 0 {
		return nil, unavailable(errors.New("no samples"))
	}
	if dropped > 0 {
		slog.Warn("recording truncated to max steps",
			"agent", id.Label(),
			"path", path,
			"kept", len(samples),
			"dropped", dropped,
		)
	}
	return wrap(samples), nil
}

type csvColumns struct {
	tick, x, y, speed, heading int
}

// parse reads at most MaxSteps samples and counts the rows beyond them.
func (l *CSVLoader) parse(r io.Reader) (samples []Sample, dropped int, err error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, 0, err
	}

	if l.MaxSteps > 0 {
		samples = make([]Sample, 0, l.MaxSteps)
	}
	hasSpeed, hasHeading := cols.speed >= 0, cols.heading >= 0

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", line, err)
		}
		if l.MaxSteps >= 0 && len(samples) == l.MaxSteps {
			dropped++
			continue
		}

		tick, err := strconv.Atoi(rec[cols.tick])
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: tick: %w", line, err)
		}
		if tick != len(samples) {
			return nil, 0, fmt.Errorf("line %d: tick %d out of sequence, expected %d", line, tick, len(samples))
		}

		var s Sample
		x, err := parseFloat(rec[cols.x])
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: x: %w", line, err)
		}
		y, err := parseFloat(rec[cols.y])
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: y: %w", line, err)
		}
		s.Position = mgl64.Vec2{x, y}
		if hasSpeed {
			if s.Speed, err = parseFloat(rec[cols.speed]); err != nil {
				return nil, 0, fmt.Errorf("line %d: speed: %w", line, err)
			}
		}
		if hasHeading {
			if s.Heading, err = parseFloat(rec[cols.heading]); err != nil {
				return nil, 0, fmt.Errorf("line %d: heading: %w", line, err)
			}
		}
		samples = append(samples, s)
	}

	if !hasSpeed || !hasHeading {
		deriveMotion(samples, l.TimeStep, !hasSpeed, !hasHeading)
	}
	return samples, dropped, nil
}

func resolveColumns(header []string) (csvColumns, error) {
	cols := csvColumns{tick: -1, x: -1, y: -1, speed: -1, heading: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "tick", "step":
			cols.tick = i
		case "x":
			cols.x = i
		case "y":
			cols.y = i
		case "speed":
			cols.speed = i
		case "heading":
			cols.heading = i
		}
	}
	if cols.tick < 0 || cols.x < 0 || cols.y < 0 {
		return cols, fmt.Errorf("header %v: requires tick, x and y columns", header)
	}
	return cols, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

// deriveMotion fills speed and/or heading from forward differences.
// The last sample repeats the previous one's values.
func deriveMotion(samples []Sample, dt float64, speed, heading bool) {
	n := len(samples)
	if n < 2 || dt <= 0 {
		return
	}
	for i := 0; i < n-1; i++ {
		d := samples[i+1].Position.Sub(samples[i].Position)
		if speed {
			samples[i].Speed = d.Len() / dt
		}
		if heading {
			samples[i].Heading = math.Atan2(d.Y(), d.X())
		}
	}
	if speed {
		samples[n-1].Speed = samples[n-2].Speed
	}
	if heading {
		samples[n-1].Heading = samples[n-2].Heading
	}
}
