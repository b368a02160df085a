// Package config loads and validates experiment configuration.
//
// An Experiment is read from YAML (.yaml, .yml) or CUE (.cue, .json) and
// layered over Default: fields absent from the file keep their default
// values. CUE files are unified with the embedded #Experiment schema, so
// they may use CUE expressions (time_step: 1/90) and are checked for unknown
// fields and out-of-range values before decoding.
//
// Goals: a missing goals list means one goal at the default position derived
// from the bounds; an explicit empty list means no goals.
package config
