// Package core provides the foundational domain types shared across the
// companion backend:
//
//   - Caller / Subject (resolved identity of a connected participant)
//   - Connection (raw connection-level facts delivered by the room transport)
//   - Turn (one utterance boundary in the dialogue, tagged with a role)
//
// The package intentionally keeps implementation concerns (persistence,
// remote partners, dialogue orchestration) out of scope so that higher
// layers can depend on small, stable contracts.
package core
