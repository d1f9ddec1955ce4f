// Package transform cleanses extracted metadata into the canonical
// processed recording: it derives the case reference (URN when it meets
// the format rules, exhibit reference as the fallback), splits person
// names into first/last parts, and computes the preferred-version flag.
package transform
