// Package extraction turns one archived source row into structured
// metadata. Archive names follow a small set of known layouts; names that
// match a test keyword are filed as test recordings, and rows with raw
// files, pre-go-live timestamps, or unresolvable site codes fail with the
// matching report category.
package extraction
