// Package core provides the foundational domain types shared by agentteam:
//
//   - Message / ViewMessage (shared log entries and their rendered form)
//   - Personality (system instruction of a participant)
//   - RoundLimiter (optional per-session round budget)
//   - sentinel configuration errors checked with errors.Is
//
// Implementation concerns (log storage, orchestration, model providers) live
// in their own packages so this package has no dependency beyond uuid.
package core
