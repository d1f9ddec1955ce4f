// Package refdata ingests the auxiliary site and channel feeds into the
// lookup tables extraction consults. Ingestion is independent of the
// recording pipeline: bad rows are logged and dropped, never surfaced as
// recording failures.
package refdata
