// Package engine implements the trajectory-driven simulation driver.
//
// The driver owns the roster of agents and the tick loop. It never moves an
// agent itself: positions and velocities belong to the avoidance Oracle, and
// the driver influences them only by issuing preferred velocities.
//
// ARCHITECTURE:
//
// Setup:
// 1. Oracle.Configure with the simulation-wide Params
// 2. Register the participant, then avatars in ordinal order, each at its
// trajectory's tick-0 position
// 3. Register goals at their fixed positions and pin their max speed to 0
//
// Handles are expected dense from 0 in registration order. The driver checks
// this instead of assuming it, and exposes the role -> handle mapping through
// the Roster.
//
// Tick:
// 1. Set the preferred velocity of EVERY agent (trajectory finite difference
// for moving agents, zero for goals)
// 2. Call Oracle.Advance exactly once
//
// Avoidance is resolved jointly by the oracle, so a partial update followed by
// an advance would silently reuse stale preferred velocities.
//
// Run:
// Exactly budget ticks, no early exit. At every sampled tick the state of all
// agents is read BEFORE that tick's advance, so the record for step n is the
// state at simulated time n*dt. Records reach the Recorder ordered by step,
// then by ascending handle.
//
// The driver is single-threaded. Tick n+1 never starts before tick n's advance
// has returned.
package engine
