package trajectory

import "github.com/go-gl/mathgl/mgl64"

// PreferredVelocity returns the velocity an agent following tr should attempt
// during tick: the forward finite difference (pos[tick+1]-pos[tick])/dt.
//
// At or past the last sample the agent holds position, so the result is the
// zero vector. Trajectories of length 0 or 1 therefore always yield zero, as do
// negative ticks and a non-positive dt.
func PreferredVelocity(tr *Trajectory, tick int, dt float64) mgl64.Vec2 {
	if tick < 0 || tick >= tr.Len()-1 || dt <= 0 {
		return mgl64.Vec2{}
	}
	d := tr.samples[tick+1].Position.Sub(tr.samples[tick].Position)
	return mgl64.Vec2{d.X() / dt, d.Y() / dt}
}
