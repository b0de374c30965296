package notebook_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/platform/memory"
	"github.com/Chesten223/SoRight3/internal/service/notebook"
	"github.com/Chesten223/SoRight3/internal/service/tree"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func seedQuestions(t *testing.T, mem *memory.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := mem.Stores().Catalog.Insert(context.Background(), &domain.Question{
			ID:              id,
			Content:         "question " + id,
			Options:         []domain.Option{{ID: "A", Text: "a"}, {ID: "B", Text: "b"}},
			CorrectOptionID: "A",
			Mode:            domain.ModePractice,
		})
		require.NoError(t, err)
	}
}

func setup(t *testing.T) (*memory.Store, notebook.Service, tree.Service[domain.NotebookPayload]) {
	t.Helper()
	mem := memory.New(discard)
	books, err := notebook.NewService(mem, nil, discard)
	require.NoError(t, err)
	notebooks, err := tree.NewService(mem, tree.Notebooks, discard)
	require.NoError(t, err)
	return mem, books, notebooks
}

func TestInboxIsCreatedLazilyOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem, books, notebooks := setup(t)
	seedQuestions(t, mem, "Q1", "Q2")
	user := uuid.New()

	first, err := books.AddToInbox(ctx, user, "Q1")
	require.NoError(t, err)
	assert.Equal(t, notebook.InboxName, first.Name)
	assert.Equal(t, []string{"Q1"}, first.Payload.QuestionIDs)

	second, err := books.AddToInbox(ctx, user, "Q2")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	again, err := books.AddToInbox(ctx, user, "Q1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Q1", "Q2"}, again.Payload.QuestionIDs)

	root, err := notebooks.Root(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.ID}, root.ChildIDs)

	_, err = books.AddToInbox(ctx, user, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddAndRemoveQuestion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem, books, notebooks := setup(t)
	seedQuestions(t, mem, "Q1")
	user := uuid.New()

	nb, err := notebooks.Create(ctx, user, "Mechanics", nil, domain.NotebookPayload{})
	require.NoError(t, err)

	got, err := books.AddQuestion(ctx, user, nb.ID, "Q1")
	require.NoError(t, err)
	assert.True(t, got.Payload.HasQuestion("Q1"))

	_, err = books.AddQuestion(ctx, user, nb.ID, "Q404")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = books.AddQuestion(ctx, uuid.New(), nb.ID, "Q1")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = books.AddQuestion(ctx, user, uuid.New(), "Q1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err = books.RemoveQuestion(ctx, user, nb.ID, "Q1")
	require.NoError(t, err)
	assert.Empty(t, got.Payload.QuestionIDs)

	got, err = books.RemoveQuestion(ctx, user, nb.ID, "Q1")
	require.NoError(t, err)
	assert.Empty(t, got.Payload.QuestionIDs)
}

func TestCollectInheritsTags(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, books, notebooks := setup(t)
	user := uuid.New()

	// root
	// └── Physics {physics}
	//     └── Mechanics {}           [M1]
	//         ├── Dynamics {force}   [X, M1]
	//         └── Kinematics {motion} [K1, X]
	physics, err := notebooks.Create(ctx, user, "Physics", nil, domain.NotebookPayload{Tags: []string{"physics"}})
	require.NoError(t, err)
	mech, err := notebooks.Create(ctx, user, "Mechanics", &physics.ID, domain.NotebookPayload{QuestionIDs: []string{"M1"}})
	require.NoError(t, err)
	dyn, err := notebooks.Create(ctx, user, "Dynamics", &mech.ID, domain.NotebookPayload{
		Tags: []string{"force"}, QuestionIDs: []string{"X", "M1"},
	})
	require.NoError(t, err)
	kin, err := notebooks.Create(ctx, user, "Kinematics", &mech.ID, domain.NotebookPayload{
		Tags: []string{"motion"}, QuestionIDs: []string{"K1", "X"},
	})
	require.NoError(t, err)

	entries, err := books.Collect(ctx, user, mech.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, []string{"M1", "X", "K1"}, notebook.IDs(entries))
	assert.Equal(t, []string{"force", "physics"}, entries[0].Tags)
	assert.Equal(t, []uuid.UUID{mech.ID, dyn.ID}, entries[0].NotebookIDs)
	assert.Equal(t, []string{"force", "motion", "physics"}, entries[1].Tags)
	assert.Equal(t, []uuid.UUID{dyn.ID, kin.ID}, entries[1].NotebookIDs)
	assert.Equal(t, []string{"motion", "physics"}, entries[2].Tags)

	leaf, err := books.Collect(ctx, user, kin.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"K1", "X"}, notebook.IDs(leaf))

	empty, err := notebooks.Create(ctx, user, "Empty", &physics.ID, domain.NotebookPayload{})
	require.NoError(t, err)
	none, err := books.Collect(ctx, user, empty.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = books.Collect(ctx, uuid.New(), mech.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
