// Package memory contains the shared conversation log a team discusses over.
//
// Every participant observes the same append-only Log, but each one receives
// its own projection of it (RenderFor): its own messages come back with the
// assistant role while everybody else's are attributed by name under the user
// role. A rendered view is bound to the log prefix that existed when it was
// requested, so views taken before a round started are stable snapshots.
package memory
