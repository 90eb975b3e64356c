// Package params carries step parameters as cty values so configuration can
// round-trip through HCL, JSON and YAML without the core knowing concrete
// step types. Steps read their settings through a Reader and write them back
// through a Writer; Values implements both.
package params
