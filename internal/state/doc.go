// Package state persists install sessions.
//
// A session record is the authoritative log of what the installer changed
// in one project tree: which answer was accepted for each question and,
// for every answer, the exact edits needed to undo it. Records are stored
// as JSON files named after the session ID in the sessions directory.
//
// Key concepts:
//   - SessionState: phase, layout, answers and the managed provider block
//   - Answer: an accepted (question, code) pair plus its Undo record
//   - SessionID: stable identifier derived from the absolute project root
//   - StateStore: interface for persisting and loading session records
package state
