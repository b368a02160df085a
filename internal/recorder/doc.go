// Package recorder persists engine.TickRecord streams.
//
// Every sink shares one canonical row layout:
//
//	step,agent_id,x,y,vx,vy,speed
//
// with floats written in fixed notation to six decimals. CSV writes the rows
// to a file, Fingerprint hashes the exact same bytes with xxh3 so two runs can
// be compared without keeping their output, and Tee fans a stream out to
// several sinks.
package recorder
