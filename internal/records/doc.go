// Package records stores submitted form trees. Each record keeps the whole
// submission body as JSON next to the form and subject identifiers, on
// SQLite by default or PostgreSQL.
package records
