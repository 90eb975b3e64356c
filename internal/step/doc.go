/*
Package step defines the contract every processing step implements and the
per-invocation environment it runs in.

A step runs in two phases against the same collection:

  - Validate checks inputs and declares outputs without allocating data. It
    must be safe to call repeatedly: calling it twice leaves the collection
    as calling it once would.
  - Commit performs the work and allocates outputs.

A step reports failure by returning an error, preferably a *dataerr.Error so
the pipeline can surface its kind, code and path. Non-fatal diagnostics go
through Env.Warn and progress through Env.Progress. Run turns one invocation
into a Result value; a step keeps no status fields of its own.
*/
package step
