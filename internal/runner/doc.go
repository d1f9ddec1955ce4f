// Package runner executes one migration batch: it takes the single-run
// lock, drains reference-data items into the lookup tables, then drives
// recording items through the processor on a bounded worker pool.
// Cancellation stops feeding new items; statuses already committed stay
// committed.
package runner
