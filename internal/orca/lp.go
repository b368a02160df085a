package orca

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-5

// halfPlane is the set of velocities on the left of a directed line.
type halfPlane struct {
	point     mgl64.Vec2
	direction mgl64.Vec2 // unit length
}

// det is the 2-D cross product.
func det(a, b mgl64.Vec2) float64 {
	return a.X()*b.Y() - a.Y()*b.X()
}

func absSq(v mgl64.Vec2) float64 {
	return v.Dot(v)
}

// linearProgram1 optimises along line lineNo subject to the earlier lines and
// the speed disc. It reports false when the constraints leave nothing on the
// line.
func linearProgram1(lines []halfPlane, lineNo int, radius float64, optVelocity mgl64.Vec2, directionOpt bool, result *mgl64.Vec2) bool {
	ln := lines[lineNo]
	dotProduct := ln.point.Dot(ln.direction)
	discriminant := dotProduct*dotProduct + radius*radius - absSq(ln.point)
	if discriminant < 0 {
		// Max speed disc fully invalidates line.
		return false
	}

	sqrtDisc := math.Sqrt(discriminant)
	tLeft := -dotProduct - sqrtDisc
	tRight := -dotProduct + sqrtDisc

	for i := 0; i < lineNo; i++ {
		denominator := det(ln.direction, lines[i].direction)
		numerator := det(lines[i].direction, ln.point.Sub(lines[i].point))

		if math.Abs(denominator) <= epsilon {
			// Lines are (almost) parallel.
			if numerator < 0 {
				return false
			}
			continue
		}

		t := numerator / denominator
		if denominator >= 0 {
			tRight = math.Min(tRight, t)
		} else {
			tLeft = math.Max(tLeft, t)
		}
		if tLeft > tRight {
			return false
		}
	}

	switch {
	case directionOpt:
		if optVelocity.Dot(ln.direction) > 0 {
			*result = ln.point.Add(ln.direction.Mul(tRight))
		} else {
			*result = ln.point.Add(ln.direction.Mul(tLeft))
		}
	default:
		t := ln.direction.Dot(optVelocity.Sub(ln.point))
		switch {
		case t < tLeft:
			*result = ln.point.Add(ln.direction.Mul(tLeft))
		case t > tRight:
			*result = ln.point.Add(ln.direction.Mul(tRight))
		default:
			*result = ln.point.Add(ln.direction.Mul(t))
		}
	}
	return true
}

// linearProgram2 finds the velocity within radius closest to optVelocity (or
// furthest along it when directionOpt) that satisfies every line. It returns
// len(lines) on success, otherwise the index of the first line that could not
// be satisfied; result then holds the best velocity before that line.
func linearProgram2(lines []halfPlane, radius float64, optVelocity mgl64.Vec2, directionOpt bool, result *mgl64.Vec2) int {
	switch {
	case directionOpt:
		// optVelocity is a unit vector here.
		*result = optVelocity.Mul(radius)
	case absSq(optVelocity) > radius*radius:
		*result = optVelocity.Normalize().Mul(radius)
	default:
		*result = optVelocity
	}

	for i := range lines {
		if det(lines[i].direction, lines[i].point.Sub(*result)) > 0 {
			// result does not satisfy constraint i.
			temp := *result
			if !linearProgram1(lines, i, radius, optVelocity, directionOpt, result) {
				*result = temp
				return i
			}
		}
	}
	return len(lines)
}

// linearProgram3 minimises the maximum violation of lines[beginLine:] when
// linearProgram2 found them infeasible.
func linearProgram3(lines []halfPlane, beginLine int, radius float64, result *mgl64.Vec2) {
	distance := 0.0

	for i := beginLine; i < len(lines); i++ {
		li := lines[i]
		if det(li.direction, li.point.Sub(*result)) <= distance {
			continue
		}

		// result does not satisfy constraint i by more than the current distance.
		projLines := make([]halfPlane, 0, i)
		for j := 0; j < i; j++ {
			lj := lines[j]
			var pl halfPlane

			determinant := det(li.direction, lj.direction)
			if math.Abs(determinant) <= epsilon {
				if li.direction.Dot(lj.direction) > 0 {
					// Same direction.
					continue
				}
				// Opposite direction.
				pl.point = li.point.Add(lj.point).Mul(0.5)
			} else {
				t := det(lj.direction, li.point.Sub(lj.point)) / determinant
				pl.point = li.point.Add(li.direction.Mul(t))
			}
			pl.direction = lj.direction.Sub(li.direction).Normalize()
			projLines = append(projLines, pl)
		}

		temp := *result
		opt := mgl64.Vec2{-li.direction.Y(), li.direction.X()}
		if linearProgram2(projLines, radius, opt, true, result) < len(projLines) {
			// Only possible through floating-point error; keep the previous result.
			*result = temp
		}
		distance = det(li.direction, li.point.Sub(*result))
	}
}
