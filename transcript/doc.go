// Package transcript archives finished discussions.
//
// When a session ends, either through the end command or through idle
// expiry, the session handler hands a Transcript (topic, participants and
// the full conversation log) to a Store. Two backends are provided: an
// in-memory store for tests and single-process setups, and a file store
// writing one YAML document per transcript. Callers depend on the Store
// interface so backends can be swapped without touching calling code.
package transcript
