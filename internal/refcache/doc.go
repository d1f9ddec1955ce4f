// Package refcache holds the in-memory reference data a run cross-checks
// recordings against: known cases and their open/closed state, the highest
// version seen per case/exhibit group, and which groups have already been
// migrated. The cache checkpoints to a JSON snapshot after every
// successfully processed item so a crashed run resumes cheaply.
package refcache
