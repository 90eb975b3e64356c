/*
Package pipeline orders steps and drives them through the two-phase protocol.

ValidateAll runs every enabled step's Validate, in order, against a
metadata-only copy of the collection, so validation never allocates or
touches real data. It stops at the first failure. CommitAll runs every
enabled step's Commit against the real collection; it refuses to start
unless the most recent ValidateAll succeeded and the step list has not been
edited since. Cancellation is checked between steps and ends the run in the
Cancelled state rather than CommitFailed.

The step list can be edited only while no run is in progress. Out-of-range
indices are rejected, never clamped.
*/
package pipeline
