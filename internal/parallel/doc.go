// Package parallel runs index-range work on a bounded pool of goroutines.
// Steps use it to split per-element loops over large arrays. Every call joins
// all of its goroutines before returning, so no work outlives the step that
// started it.
package parallel
