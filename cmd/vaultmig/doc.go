// Package main hosts the vaultmig CLI entrypoint and command graph.
//
// The Cobra-based command tree covers batch execution (run), stored record
// inspection and resubmission (records), aggregate reporting (report),
// reference cache administration (cache), and configuration scaffolding
// (config). It centralizes configuration resolution and structured logging
// setup so subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
