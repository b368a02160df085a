package recorder

import (
	"strconv"

	"github.com/roach88/crowdreplay/internal/engine"
)

// Header is the column layout of every record stream.
var Header = []string{"step", "agent_id", "x", "y", "vx", "vy", "speed"}

// FormatFloat renders v the way every sink writes floats.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// Row renders rec in Header order.
func Row(rec engine.TickRecord) []string {
	return []string{
		strconv.Itoa(rec.Step),
		strconv.Itoa(rec.AgentID),
		FormatFloat(rec.Position.X()),
		FormatFloat(rec.Position.Y()),
		FormatFloat(rec.Velocity.X()),
		FormatFloat(rec.Velocity.Y()),
		FormatFloat(rec.Speed),
	}
}
