package tree

import (
	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/store"
)

// Notes is the free-form notes tree. Only folders hold children.
var Notes = Kind[domain.NotePayload]{
	Name: domain.TreeKindNotes,
	Pick: func(s *store.Stores) store.NodeStore[domain.NotePayload] { return s.Notes },
	RootPayload: func() domain.NotePayload {
		return domain.NotePayload{Kind: domain.NoteKindFolder}
	},
	Normalize: func(p domain.NotePayload) (domain.NotePayload, error) {
		if err := p.Validate(); err != nil {
			return p, err
		}
		if p.IsFolder() {
			p.Content = ""
		}
		return p, nil
	},
	CanContain: func(n *domain.TreeNode[domain.NotePayload]) bool {
		return n.Payload.IsFolder()
	},
}

// Notebooks is the question notebook tree. Every notebook may hold children.
var Notebooks = Kind[domain.NotebookPayload]{
	Name: domain.TreeKindNotebooks,
	Pick: func(s *store.Stores) store.NodeStore[domain.NotebookPayload] { return s.Notebooks },
	RootPayload: func() domain.NotebookPayload {
		return domain.NotebookPayload{}.Normalize()
	},
	Normalize: func(p domain.NotebookPayload) (domain.NotebookPayload, error) {
		return p.Normalize(), nil
	},
	CanContain: func(*domain.TreeNode[domain.NotebookPayload]) bool { return true },
}
