// Package session hosts the per-chat discussion state machine and the
// registry that keeps one Session per external session id.
//
// A session starts when a message begins with a trigger phrase followed by a
// topic. The user then picks participants from the catalog by number (or
// everyone at once) and the first round runs with the topic as input. From
// then on every message either ends the discussion, continues it without new
// input, or is added to the log as the user's contribution to the next round.
//
// The Registry is an owned object, never a package global. Events for the
// same session id are serialized by a per-id lock while different sessions
// proceed independently.
package session
