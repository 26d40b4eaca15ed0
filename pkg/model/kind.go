package model

import "strings"

// Kind enumerates the field kinds a schema node can declare.
type Kind int

const (
	KindUnknown Kind = iota
	KindText
	KindNumber
	KindDate
	KindDateTime
	KindBoolean
	KindChoice
	KindCluster
	KindSlot
)

var kindNames = map[Kind]string{
	KindText:     "scalar-text",
	KindNumber:   "scalar-number",
	KindDate:     "scalar-date",
	KindDateTime: "scalar-datetime",
	KindBoolean:  "scalar-boolean",
	KindChoice:   "scalar-choice",
	KindCluster:  "cluster",
	KindSlot:     "slot",
	KindUnknown:  "unknown",
}

// legacyKinds maps the HTML input vocabulary emitted by the archetype backend.
var legacyKinds = map[string]Kind{
	"text":           KindText,
	"number":         KindNumber,
	"date":           KindDate,
	"datetime-local": KindDateTime,
	"datetime":       KindDateTime,
	"checkbox":       KindBoolean,
	"boolean":        KindBoolean,
	"select":         KindChoice,
	"choice":         KindChoice,
}

// String returns the canonical wire name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// IsScalar reports whether the kind holds a single editable value.
func (k Kind) IsScalar() bool {
	switch k {
	case KindText, KindNumber, KindDate, KindDateTime, KindBoolean, KindChoice:
		return true
	default:
		return false
	}
}

// ParseKind resolves a wire kind. Unrecognised values map to KindUnknown; the
// second return value reports whether the input was recognised.
func ParseKind(raw string) (Kind, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return KindUnknown, false
	}
	for kind, canonical := range kindNames {
		if kind != KindUnknown && canonical == name {
			return kind, true
		}
	}
	if kind, ok := legacyKinds[name]; ok {
		return kind, true
	}
	return KindUnknown, false
}
