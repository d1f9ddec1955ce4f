// Package processor drives one item at a time through the migration
// pipeline: extraction, transformation, duplicate detection, validation,
// and the case-state gate. Every stage outcome is converted into exactly
// one record status update plus, where applicable, one tracker entry; no
// item failure ever escapes to the caller and aborts the batch.
package processor
