// Package store provides SQLite-backed storage for simulation runs.
//
// A run is one row in runs (metadata, the experiment configuration as JSON,
// the record fingerprint and a status) plus its tick records in tick_records.
//
// # Ordering
//
// Runs are ordered by seq, a logical insertion counter, then id. Records are
// ordered by step then agent_id, which is the order the driver emits them.
// No query orders by wall-clock time, so reads are identical across replays.
//
// # Writing
//
// BeginRun opens one transaction per run. The returned RunWriter is an
// engine.Recorder; Commit marks the run complete, Fail keeps the rows written
// so far and marks the run failed, and Rollback discards everything.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
