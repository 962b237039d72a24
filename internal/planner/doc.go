// Package planner handles the planning phase of answer processing.
//
// The planner is pure: it never touches the project tree. Given the
// catalog and the answers accepted so far it decides whether a new answer
// is legal, and turns an accepted option into an ordered list of
// operations for the engine to execute.
//
// Key responsibilities:
//   - Validate answers against the catalog and cross-question constraints
//   - Enforce the install-type ordering rule
//   - Generate an AnswerPlan with ordered operations
//   - Detect conflicts with files the session does not manage
package planner
