// Package builder turns a config.Pipeline into a runnable pipeline.Pipeline
// and back.
//
// Steps are resolved through the registry by type name, falling back to the
// UUID. A step whose type cannot be resolved is kept in place as an Unknown
// step so the rest of the file can still be inspected and written back; it
// fails validation with the UnknownStep error code.
package builder
