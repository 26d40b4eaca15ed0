// Package state holds the root value tree of a form. A Container owns the
// current schema and tree, applies edits coming from interpreted units, and
// guards against edits that target a pending or superseded schema load.
// Containers are created and owned by callers; there is no package level
// instance.
package state
