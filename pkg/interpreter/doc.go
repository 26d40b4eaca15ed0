// Package interpreter maps schema nodes and their current values onto
// renderable units. Interpretation is pure: a Unit only carries what a
// renderer needs plus an emitter that forwards edits, tagged with the unit's
// full path, to a Sink. Clusters recurse into their children; unknown kinds and
// malformed clusters degrade to diagnostic units without affecting siblings.
package interpreter
