// Package validation applies the business rules to processed recordings.
// First-pass validation guards fresh items; resolved validation re-checks
// resubmitted items with a reduced rule set and archive-name context in
// its messages. Every violation maps to a report category.
package validation
