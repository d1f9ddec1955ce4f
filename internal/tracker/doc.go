// Package tracker accumulates the failed, test, and notify items of a run
// for end-of-run reporting. Appends are safe under the worker pool; order
// across items is not significant.
package tracker
