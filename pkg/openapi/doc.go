// Package openapi serves form schemas from an OpenAPI 3 document. The form
// identifier is an operationId and the form fields are the properties of that
// operation's request body schema.
//
// Mapping: object properties become clusters, booleans become checkboxes,
// numbers and integers become number fields (x-units supplies the unit),
// string enums become choices, format date and date-time become date fields,
// other strings become text and everything else is reported as an unknown
// kind. Properties are ordered by x-order and then by name.
package openapi
