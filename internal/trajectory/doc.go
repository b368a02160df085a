// Package trajectory provides the recorded paths that drive simulated agents.
//
// A Trajectory is a fixed-length, tick-indexed sequence of samples. Index i is
// the agent's intended state at simulated time i*dt, independent of any
// collision avoidance applied later by the simulator.
//
// Sources:
//   - Synthetic: deterministic closed-form paths for the participant and
//     avatars of the crowd-navigation experiment.
//   - CSVLoader: recorded paths stored as one CSV file per agent label.
//   - Fallback: tries a primary source and, when its data is unavailable,
//     logs a degraded-mode warning and uses a secondary source.
//
// PreferredVelocity turns two consecutive samples into the velocity an agent
// should attempt during a tick.
package trajectory
