// Package source reads the CSV feeds a batch run consumes: the archive
// index and the site/channel reference feeds. Malformed rows are logged
// and skipped so one bad line never sinks a batch.
package source
