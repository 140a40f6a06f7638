// Package quota enforces per-tier daily ceilings on subjects, flashcards and
// AI generated flashcards.
//
// The Policy maps every tier to a ceiling per resource Kind. It is loaded
// once from a Source (in-memory defaults or a YAML file), validated and never
// mutated afterwards.
//
// Usage is not stored separately. A Ledger counts the user's non-deleted
// rows created inside the current UTC day, [00:00Z, next 00:00Z).
//
// Guard.Check compares the request with the remaining allowance:
//
//   - requested <= available: the full request is granted.
//   - available <= 0: an *ExceededError naming the resource is returned.
//   - otherwise ModeBulk grants the remainder and ModeSingle fails.
//
// AI generated flashcards count against both the AI ceiling and the general
// flashcard ceiling; the smaller remainder applies.
package quota
