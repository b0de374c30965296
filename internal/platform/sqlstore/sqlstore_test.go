package sqlstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/platform/sqlite"
	"github.com/Chesten223/SoRight3/internal/platform/sqlstore"
	"github.com/Chesten223/SoRight3/internal/store"
	"github.com/Chesten223/SoRight3/internal/testdb"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

// testDriver selects the database every test in this package runs on.
// Integration builds switch it to postgres.
var testDriver = sqlite.DriverName

func newBackend(t *testing.T) *sqlstore.Backend {
	t.Helper()
	db, dialect := testdb.Open(t, testDriver)
	return sqlstore.New(db, dialect, testdb.Logger())
}

func sampleQuestion(id, mode string, tags ...string) *domain.Question {
	return &domain.Question{
		ID:      id,
		Content: "What is " + id + "?",
		Options: []domain.Option{
			{ID: "A", Text: "first"},
			{ID: "B", Text: "second"},
		},
		CorrectOptionID: "A",
		Tags:            tags,
		Mode:            mode,
	}
}

func newNotebook(t *testing.T, user uuid.UUID, name string, parent *uuid.UUID, order int) *domain.TreeNode[domain.NotebookPayload] {
	t.Helper()
	node, err := domain.NewTreeNode(user, domain.TreeKindNotebooks, name, parent,
		domain.NotebookPayload{Tags: []string{"t"}, QuestionIDs: []string{}}, testNow)
	require.NoError(t, err)
	node.OrderIndex = order
	return node
}

func TestNewNodeStoreRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	db, dialect := testdb.Open(t, testDriver)
	assert.PanicsWithValue(t, `unknown tree kind "graphs"`, func() {
		sqlstore.NewNodeStore[domain.NotePayload](db, dialect, domain.TreeKind("graphs"), testdb.Logger())
	})
}

func TestNodeStoreLockTree(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := newBackend(t)
	user := uuid.New()

	err := backend.WithinTx(ctx, func(ctx context.Context, tx *store.Stores) error {
		// No root yet: nothing to lock.
		if err := tx.Notebooks.LockTree(ctx, user); err != nil {
			return err
		}
		if err := tx.Notebooks.Create(ctx, newNotebook(t, user, domain.RootNodeName, nil, 0)); err != nil {
			return err
		}
		return tx.Notebooks.LockTree(ctx, user)
	})
	require.NoError(t, err)
}

func TestNodeStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := newBackend(t)
	stores := backend.Stores()
	user := uuid.New()

	root := newNotebook(t, user, domain.RootNodeName, nil, 0)
	require.NoError(t, stores.Notebooks.Create(ctx, root))

	t.Run("root lookup", func(t *testing.T) {
		got, err := stores.Notebooks.Root(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, root.ID, got.ID)
		assert.Nil(t, got.ParentID)
		assert.Equal(t, domain.TreeKindNotebooks, got.Kind)
		assert.Equal(t, []string{"t"}, got.Payload.Tags)
		assert.True(t, testNow.Equal(got.CreatedAt))
	})

	t.Run("root is scoped by kind and user", func(t *testing.T) {
		_, err := stores.Notes.Root(ctx, user)
		assert.ErrorIs(t, err, store.ErrNodeNotFound)
		_, err = stores.Notebooks.Root(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrNodeNotFound)
	})

	t.Run("second root is a duplicate", func(t *testing.T) {
		dup := newNotebook(t, user, domain.RootNodeName, nil, 0)
		err := stores.Notebooks.Create(ctx, dup)
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("children ordered by index", func(t *testing.T) {
		b := newNotebook(t, user, "b", &root.ID, 1)
		a := newNotebook(t, user, "a", &root.ID, 0)
		c := newNotebook(t, user, "c", &root.ID, 2)
		for _, n := range []*domain.TreeNode[domain.NotebookPayload]{b, a, c} {
			require.NoError(t, stores.Notebooks.Create(ctx, n))
		}

		children, err := stores.Notebooks.Children(ctx, root.ID)
		require.NoError(t, err)
		require.Len(t, children, 3)
		assert.Equal(t, []string{"a", "b", "c"}, []string{children[0].Name, children[1].Name, children[2].Name})
		require.NotNil(t, children[0].ParentID)
		assert.Equal(t, root.ID, *children[0].ParentID)

		all, err := stores.Notebooks.ListByUser(ctx, user)
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})

	t.Run("update and delete", func(t *testing.T) {
		node := newNotebook(t, user, "tmp", &root.ID, 9)
		require.NoError(t, stores.Notebooks.Create(ctx, node))

		node.Name = "renamed"
		node.Payload = node.Payload.WithQuestion("q1")
		node.UpdatedAt = testNow.Add(time.Hour)
		require.NoError(t, stores.Notebooks.Update(ctx, node))

		got, err := stores.Notebooks.Get(ctx, node.ID)
		require.NoError(t, err)
		assert.Equal(t, "renamed", got.Name)
		assert.Equal(t, []string{"q1"}, got.Payload.QuestionIDs)
		assert.True(t, node.UpdatedAt.Equal(got.UpdatedAt))

		require.NoError(t, stores.Notebooks.Delete(ctx, []uuid.UUID{node.ID}))
		_, err = stores.Notebooks.Get(ctx, node.ID)
		assert.ErrorIs(t, err, store.ErrNodeNotFound)

		err = stores.Notebooks.Delete(ctx, []uuid.UUID{node.ID})
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.NoError(t, stores.Notebooks.Delete(ctx, nil))
	})

	t.Run("update of missing node", func(t *testing.T) {
		ghost := newNotebook(t, user, "ghost", &root.ID, 0)
		assert.ErrorIs(t, stores.Notebooks.Update(ctx, ghost), store.ErrNodeNotFound)
	})

	t.Run("get ignores other kind", func(t *testing.T) {
		_, err := stores.Notes.Get(ctx, root.ID)
		assert.ErrorIs(t, err, store.ErrNodeNotFound)
	})
}

func TestCatalogStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	catalog := newBackend(t).Stores().Catalog

	inserted, err := catalog.Insert(ctx, sampleQuestion("q2", domain.ModePractice, "loops", "arrays", "loops"))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = catalog.Insert(ctx, sampleQuestion("q1", domain.ModePractice))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = catalog.Insert(ctx, sampleQuestion("q3", domain.ModeExam))
	require.NoError(t, err)
	assert.True(t, inserted)

	t.Run("duplicate insert is skipped", func(t *testing.T) {
		inserted, err := catalog.Insert(ctx, sampleQuestion("q1", domain.ModeExam))
		require.NoError(t, err)
		assert.False(t, inserted)

		got, err := catalog.Get(ctx, "q1")
		require.NoError(t, err)
		assert.Equal(t, domain.ModePractice, got.Mode)
	})

	t.Run("get decodes options and tags", func(t *testing.T) {
		got, err := catalog.Get(ctx, "q2")
		require.NoError(t, err)
		assert.Equal(t, []string{"arrays", "loops"}, got.Tags)
		assert.Len(t, got.Options, 2)
		assert.Equal(t, "A", got.CorrectOptionID)
	})

	t.Run("missing question", func(t *testing.T) {
		_, err := catalog.Get(ctx, "nope")
		assert.ErrorIs(t, err, store.ErrQuestionNotFound)
	})

	t.Run("list by mode ordered by id", func(t *testing.T) {
		list, err := catalog.ListByMode(ctx, domain.ModePractice)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "q1", list[0].ID)
		assert.Equal(t, "q2", list[1].ID)

		none, err := catalog.ListByMode(ctx, "daily")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("get many", func(t *testing.T) {
		got, err := catalog.GetMany(ctx, []string{"q1", "q3", "zz"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Contains(t, got, "q3")

		empty, err := catalog.GetMany(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("update tags", func(t *testing.T) {
		require.NoError(t, catalog.UpdateTags(ctx, "q1", []string{" recursion ", "base"}))
		got, err := catalog.Get(ctx, "q1")
		require.NoError(t, err)
		assert.Equal(t, []string{"base", "recursion"}, got.Tags)

		assert.ErrorIs(t, catalog.UpdateTags(ctx, "zz", nil), store.ErrQuestionNotFound)
	})
}

func TestProgressStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	stores := newBackend(t).Stores()
	user := uuid.New()

	for _, id := range []string{"q1", "q2", "q3"} {
		_, err := stores.Catalog.Insert(ctx, sampleQuestion(id, domain.ModePractice))
		require.NoError(t, err)
	}

	records := []domain.QuestionProgress{
		{UserID: user, QuestionID: "q1", Attempts: 2, Errors: 1, Proficiency: 5, NextReviewAt: testNow.Add(-time.Hour), LastReviewedAt: testNow},
		{UserID: user, QuestionID: "q2", Attempts: 3, Errors: 0, Proficiency: 45, Stage: 3, NextReviewAt: testNow.Add(-2 * time.Hour), LastReviewedAt: testNow},
		{UserID: user, QuestionID: "q3", Attempts: 6, Errors: 2, Proficiency: 90, Stage: 5, NextReviewAt: testNow.Add(time.Hour), LastReviewedAt: testNow},
	}
	for i := range records {
		require.NoError(t, stores.Progress.Upsert(ctx, &records[i]))
	}

	t.Run("get", func(t *testing.T) {
		got, err := stores.Progress.Get(ctx, user, "q2")
		require.NoError(t, err)
		assert.Equal(t, 45, got.Proficiency)
		assert.Equal(t, 3, got.Stage)
		assert.True(t, records[1].NextReviewAt.Equal(got.NextReviewAt))

		_, err = stores.Progress.Get(ctx, uuid.New(), "q2")
		assert.ErrorIs(t, err, store.ErrProgressNotFound)
	})

	t.Run("upsert replaces", func(t *testing.T) {
		updated := records[0]
		updated.Attempts = 3
		updated.Proficiency = 20
		require.NoError(t, stores.Progress.Upsert(ctx, &updated))

		got, err := stores.Progress.Get(ctx, user, "q1")
		require.NoError(t, err)
		assert.Equal(t, 3, got.Attempts)
		assert.Equal(t, 20, got.Proficiency)
	})

	t.Run("invalid record rejected", func(t *testing.T) {
		bad := domain.QuestionProgress{UserID: user, QuestionID: "q1", Attempts: 1, Errors: 2}
		assert.ErrorIs(t, stores.Progress.Upsert(ctx, &bad), store.ErrInvalidEntity)
	})

	t.Run("unknown question violates foreign key", func(t *testing.T) {
		orphan := domain.QuestionProgress{UserID: user, QuestionID: "missing", NextReviewAt: testNow, LastReviewedAt: testNow}
		assert.ErrorIs(t, stores.Progress.Upsert(ctx, &orphan), store.ErrInvalidEntity)
	})

	t.Run("due set", func(t *testing.T) {
		due, err := stores.Progress.ListDue(ctx, user, testNow)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, "q1", due[0].QuestionID)

		later, err := stores.Progress.ListDue(ctx, user, testNow.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, later, 2)
		assert.Equal(t, "q1", later[0].QuestionID)
		assert.Equal(t, "q3", later[1].QuestionID)
	})

	t.Run("below proficiency", func(t *testing.T) {
		weak, err := stores.Progress.ListBelowProficiency(ctx, user, 80)
		require.NoError(t, err)
		require.Len(t, weak, 2)
		assert.Equal(t, "q1", weak[0].QuestionID)
		assert.Equal(t, "q2", weak[1].QuestionID)
	})

	t.Run("list and get many", func(t *testing.T) {
		all, err := stores.Progress.ListByUser(ctx, user)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		some, err := stores.Progress.GetMany(ctx, user, []string{"q3", "q9"})
		require.NoError(t, err)
		assert.Len(t, some, 1)
		assert.Equal(t, 90, some["q3"].Proficiency)
	})
}

func TestSessionStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sessions := newBackend(t).Stores().Sessions
	user := uuid.New()

	session := &domain.StudySession{ID: uuid.New(), UserID: user, Mode: "daily", StartedAt: testNow}
	require.NoError(t, sessions.CreateSession(ctx, session))

	for i, correct := range []bool{true, false, true} {
		entry := &domain.AnswerLog{
			ID:         uuid.New(),
			UserID:     user,
			QuestionID: "q1",
			SessionID:  &session.ID,
			Choice:     "A",
			IsCorrect:  correct,
			CreatedAt:  testNow.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, sessions.AppendLog(ctx, entry))
	}
	loose := &domain.AnswerLog{ID: uuid.New(), UserID: user, QuestionID: "q2", Choice: "B", CreatedAt: testNow.Add(-48 * time.Hour)}
	require.NoError(t, sessions.AppendLog(ctx, loose))

	logs, err := sessions.SessionLogs(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.True(t, logs[0].IsCorrect)
	assert.False(t, logs[1].IsCorrect)
	require.NotNil(t, logs[0].SessionID)

	session.Finish(logs, testNow.Add(10*time.Minute))
	require.NoError(t, sessions.UpdateSession(ctx, session))

	got, err := sessions.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EndedAt)
	assert.Equal(t, 3, got.TotalQuestions)
	assert.Equal(t, 2, got.CorrectCount)
	assert.Equal(t, 66, got.Score)
	assert.Equal(t, 600, got.DurationSeconds)

	since, err := sessions.ListLogsSince(ctx, user, testNow.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, since, 3)
	assert.True(t, since[0].CreatedAt.After(since[2].CreatedAt))

	all, err := sessions.ListLogsSince(ctx, user, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Nil(t, all[3].SessionID)

	_, err = sessions.GetSession(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestWithinTxRollsBack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := newBackend(t)
	boom := errors.New("boom")

	err := backend.WithinTx(ctx, func(ctx context.Context, tx *store.Stores) error {
		if _, err := tx.Catalog.Insert(ctx, sampleQuestion("q1", domain.ModePractice)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = backend.Stores().Catalog.Get(ctx, "q1")
	assert.ErrorIs(t, err, store.ErrQuestionNotFound)

	err = backend.WithinTx(ctx, func(ctx context.Context, tx *store.Stores) error {
		_, err := tx.Catalog.Insert(ctx, sampleQuestion("q1", domain.ModePractice))
		return err
	})
	require.NoError(t, err)

	_, err = backend.Stores().Catalog.Get(ctx, "q1")
	assert.NoError(t, err)
	assert.NoError(t, backend.Ping(ctx))
}
