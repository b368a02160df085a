// Package experiment assembles one simulation run from an experiment
// configuration: trajectory source, ORCA simulator, driver and recorders.
//
// Run always fingerprints the record stream. A CSV file and a SQLite run are
// written when Options asks for them; both are opened after setup succeeds
// and released when Run returns, whether or not the run completed. Replay
// re-runs a stored run from its configuration snapshot and compares
// fingerprints.
package experiment
