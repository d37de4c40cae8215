// Package idgen mints opaque string identifiers. Callers must not parse
// them; the representation is an implementation detail.
package idgen
