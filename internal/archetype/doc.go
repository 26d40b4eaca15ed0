// Package archetype reads openEHR ADL 1.4 archetypes in their XML
// serialisation. Parse turns a CLUSTER definition into form fields and
// Catalog indexes a directory of archetypes so they can be served by id.
package archetype
