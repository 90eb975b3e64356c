// Package dataerr is the error taxonomy shared by the data model, the steps
// and the pipeline. Every failure is an *Error carrying a Kind, a numeric
// code, a message and, when known, the offending path. Kind values are
// themselves errors so callers can test with errors.Is(err, dataerr.MissingArray).
package dataerr
