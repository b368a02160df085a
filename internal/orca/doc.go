// Package orca implements the engine.Oracle contract with Optimal Reciprocal
// Collision Avoidance for disc-shaped agents in the plane.
//
// Each Advance:
//  1. Finds, for every agent, up to MaxNeighbors other agents closer than
//     NeighborDistance (nearest first, ties broken by handle)
//  2. Builds one ORCA half-plane per neighbour from the relative position and
//     velocity over TimeHorizon (or over one TimeStep when already colliding)
//  3. Picks the velocity closest to the preferred velocity that satisfies all
//     half-planes and the MaxSpeed disc, via 2-D incremental linear
//     programming; when infeasible, the velocity that minimally violates them
//  4. Applies every new velocity, then moves every agent by velocity*TimeStep
//
// New velocities are computed from the state at the start of the step for all
// agents before any is applied, so the result does not depend on handle order.
// Agents whose max speed is zero never move.
//
// Static obstacles are not modelled; TimeHorizonObstacle is accepted for
// parameter compatibility only.
package orca
