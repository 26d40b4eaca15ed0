// Package model defines the immutable field schema forms are built from. A
// schema is an ordered forest of FieldNode values; each node is either a leaf
// (text, number, date, datetime, boolean, choice, slot) or a cluster holding
// child nodes. Kind is a closed enumeration with an explicit KindUnknown arm
// so interpreters can switch exhaustively while still carrying the raw wire
// kind for diagnostics. The decoder accepts both the canonical wire names
// (`scalar-text`, `cluster`, ...) and the legacy archetype backend shape
// (`type: checkbox`, `allows: ...`).
package model
