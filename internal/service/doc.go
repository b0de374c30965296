// Package service holds what the use-case packages below it share: the
// ServiceError wrapper and the rules for passing taxonomy errors through
// untouched.
//
// Each subpackage is one area of the study tool:
//
//   - tree: the generic ordered tree behind notes and notebooks
//   - notebook: question membership, inherited tags and the Inbox
//   - review: the due set and the low proficiency fallback pool
//   - quiz: question distribution, variants, answers and study sessions
//   - stats: subtree rollups and the dashboard
//   - auth: bearer token issuing and verification
//
// Services take a store.TxManager and run every operation as one unit of
// work, so a failed call leaves no partial writes behind.
package service
