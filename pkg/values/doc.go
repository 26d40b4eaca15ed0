// Package values holds the schema-shaped value tree and the persistent update
// operations used to keep it in sync with leaf edits. Updates never mutate an
// existing Tree: Merge and SetAt copy only the maps on the edited path and
// reuse every other subtree, so consumers can detect changes with Same.
package values
