// Package pipeline defines the value types carried between migration
// stages: the three-way stage Result, the failure category taxonomy, the
// extracted and processed recording payloads, and the reporting items
// accumulated by the tracker.
package pipeline
