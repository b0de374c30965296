// Package domain contains the study entities (tree nodes and their
// payloads, catalog questions, per-user progress, sessions and answer logs)
// together with the error taxonomy every service returns. It has no
// knowledge of persistence or transport.
package domain
