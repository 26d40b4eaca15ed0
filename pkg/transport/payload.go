package transport

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-formtree/pkg/model"
	"github.com/goliatone/go-formtree/pkg/values"
)

// ErrReservedKey reports a schema field whose name collides with one of the
// identifying keys added to submissions.
var ErrReservedKey = errors.New("transport: field name is reserved")

// Keys names the identifying entries added next to the form values.
type Keys struct {
	Form    string
	Subject string
}

// DefaultKeys matches the archetype backend.
var DefaultKeys = Keys{Form: "archetypeId", Subject: "patientId"}

func (k Keys) withDefaults() Keys {
	if k.Form == "" {
		k.Form = DefaultKeys.Form
	}
	if k.Subject == "" {
		k.Subject = DefaultKeys.Subject
	}
	return k
}

// Payload returns the submission body: every entry of tree as-is plus the
// form identifier and, when set, the subject identifier as top-level siblings.
func Payload(tree values.Tree, formID, subject string, keys Keys) (map[string]any, error) {
	keys = keys.withDefaults()
	for _, key := range []string{keys.Form, keys.Subject} {
		if _, clash := tree[key]; clash {
			return nil, fmt.Errorf("%w: %q", ErrReservedKey, key)
		}
	}
	body := make(map[string]any, len(tree)+2)
	for name, value := range tree {
		body[name] = value
	}
	body[keys.Form] = formID
	if subject != "" {
		body[keys.Subject] = subject
	}
	return body, nil
}

// CheckReserved reports top-level schema fields that would collide with the
// identifying keys. Nested names cannot collide.
func CheckReserved(schema model.Schema, keys Keys) error {
	keys = keys.withDefaults()
	var errs []error
	for _, key := range []string{keys.Form, keys.Subject} {
		if _, ok := schema.Field(key); ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrReservedKey, key))
		}
	}
	return errors.Join(errs...)
}
