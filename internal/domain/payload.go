package domain

import (
	"slices"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// NoteKind distinguishes note leaves from note containers.
type NoteKind string

const (
	NoteKindFile   NoteKind = "file"
	NoteKindFolder NoteKind = "folder"
)

// NotePayload is the payload of a node in the notes tree.
type NotePayload struct {
	Kind    NoteKind `json:"kind"`
	Content string   `json:"content,omitempty"`
}

// IsFolder reports whether the note may contain children.
func (p NotePayload) IsFolder() bool {
	return p.Kind == NoteKindFolder
}

// Validate checks the note kind.
func (p NotePayload) Validate() error {
	return asValidationError(validation.ValidateStruct(&p,
		validation.Field(&p.Kind, validation.Required, validation.In(NoteKindFile, NoteKindFolder)),
	))
}

// NotebookPayload is the payload of a node in the notebooks tree. Tags are
// inherited by every descendant notebook; QuestionIDs are the questions filed
// directly in this notebook.
type NotebookPayload struct {
	Tags        []string `json:"tags"`
	QuestionIDs []string `json:"question_ids"`
}

// Normalize returns a copy with trimmed, de-duplicated, sorted sets.
func (p NotebookPayload) Normalize() NotebookPayload {
	return NotebookPayload{
		Tags:        NormalizeSet(p.Tags),
		QuestionIDs: NormalizeSet(p.QuestionIDs),
	}
}

// HasQuestion reports whether questionID is filed in this notebook.
func (p NotebookPayload) HasQuestion(questionID string) bool {
	_, found := slices.BinarySearch(p.QuestionIDs, questionID)
	return found
}

// WithQuestion returns a normalized copy containing questionID.
func (p NotebookPayload) WithQuestion(questionID string) NotebookPayload {
	n := p.Normalize()
	n.QuestionIDs = NormalizeSet(append(n.QuestionIDs, questionID))
	return n
}

// WithoutQuestion returns a normalized copy without questionID.
func (p NotebookPayload) WithoutQuestion(questionID string) NotebookPayload {
	n := p.Normalize()
	n.QuestionIDs = slices.DeleteFunc(n.QuestionIDs, func(id string) bool { return id == questionID })
	return n
}

// NormalizeSet trims every element, drops empties and duplicates, and sorts
// the result. It never returns nil.
func NormalizeSet(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// UnionSets merges sets into a normalized set.
func UnionSets(sets ...[]string) []string {
	var all []string
	for _, s := range sets {
		all = append(all, s...)
	}
	return NormalizeSet(all)
}

// Intersects reports whether a and b share at least one element.
func Intersects(a, b []string) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	index := make(map[string]struct{}, len(a))
	for _, v := range a {
		index[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := index[v]; ok {
			return true
		}
	}
	return false
}
