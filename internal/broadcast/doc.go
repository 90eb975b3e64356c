// Package broadcast forwards pipeline messages and run summaries to a
// socket.io endpoint so remote dashboards can follow a run.
package broadcast
