// Package records persists the per-archive migration record: the durable
// status state machine and descriptive metadata each pipeline run reads
// and updates. Backed by SQLite; records are never deleted, only updated,
// so the audit history of every run survives.
package records
