package interpreter

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-formtree/pkg/model"
	"github.com/goliatone/go-formtree/pkg/values"
)

// ErrReadOnly is returned when emitting on a unit that never produces edits
// (slots, diagnostics and clusters).
var ErrReadOnly = errors.New("interpreter: field is read-only")

// Control identifies the native control a unit maps to.
type Control int

const (
	ControlDiagnostic Control = iota
	ControlText
	ControlNumber
	ControlDate
	ControlDateTime
	ControlCheckbox
	ControlSelect
	ControlSlot
	ControlFieldset
)

// InputType returns the HTML input type for scalar controls.
func (c Control) InputType() string {
	switch c {
	case ControlText, ControlSlot:
		return "text"
	case ControlNumber:
		return "number"
	case ControlDate:
		return "date"
	case ControlDateTime:
		return "datetime-local"
	case ControlCheckbox:
		return "checkbox"
	default:
		return ""
	}
}

// Choice is a selectable entry of a select control. The sentinel entry stands
// for "no selection" and always carries an empty value.
type Choice struct {
	Value    string
	Label    string
	Sentinel bool
}

// Edit is an edit event: the full path of the edited leaf and its new value.
// Generation identifies the schema load the emitting unit was built from.
type Edit struct {
	Path       values.Path
	Value      any
	Generation uint64
}

// Sink receives edit events, normally the root state container.
type Sink interface {
	Apply(Edit) error
}

// SinkFunc adapts a function into a Sink.
type SinkFunc func(Edit) error

// Apply calls fn.
func (fn SinkFunc) Apply(edit Edit) error {
	return fn(edit)
}

// ValueTypeError reports an emitted value whose Go type does not fit the
// unit's control.
type ValueTypeError struct {
	Path values.Path
	Want string
	Got  any
}

func (e *ValueTypeError) Error() string {
	return fmt.Sprintf("interpreter: field %q expects %s, got %T", e.Path.String(), e.Want, e.Got)
}

// Unit is the interpreted form of one schema node.
type Unit struct {
	Kind    model.Kind
	Control Control
	Name    string
	Label   string
	Units   string
	Path    values.Path
	// Value is the current value as stored in the tree; nil when undefined.
	Value       any
	Options     []Choice
	Placeholder string
	Step        int
	Disabled    bool
	Diagnostic  string
	Children    []Unit

	emit func(any) error
}

// Editable reports whether the unit produces edits.
func (u Unit) Editable() bool {
	return u.emit != nil
}

// Emit forwards a new value for this unit to the sink.
func (u Unit) Emit(value any) error {
	if u.emit == nil {
		return ErrReadOnly
	}
	return u.emit(value)
}

// Text returns the value shown by text-like and select controls. Undefined
// values render blank.
func (u Unit) Text() string {
	switch v := u.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Checked returns the checkbox state; undefined values read as false.
func (u Unit) Checked() bool {
	checked, _ := u.Value.(bool)
	return checked
}

// Selected returns the choice matching the current value, or the sentinel.
func (u Unit) Selected() Choice {
	current := u.Text()
	for _, choice := range u.Options {
		if !choice.Sentinel && choice.Value == current && current != "" {
			return choice
		}
	}
	for _, choice := range u.Options {
		if choice.Sentinel {
			return choice
		}
	}
	return Choice{}
}

// Walk visits units depth-first in schema order until fn returns false.
func Walk(units []Unit, fn func(Unit) bool) bool {
	for _, unit := range units {
		if !fn(unit) {
			return false
		}
		if len(unit.Children) > 0 && !Walk(unit.Children, fn) {
			return false
		}
	}
	return true
}

// Find returns the unit addressed by a dotted path.
func Find(units []Unit, dotted string) (Unit, bool) {
	var found Unit
	ok := false
	Walk(units, func(unit Unit) bool {
		if unit.Path.String() == dotted {
			found, ok = unit, true
			return false
		}
		return true
	})
	return found, ok
}
