package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yolodolo42/mockchat/internal/answer"
	"github.com/yolodolo42/mockchat/internal/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(testutil.TempDir(t), "mock-data.json"))
	require.NoError(t, err)
	return store
}

func TestOpen(t *testing.T) {
	t.Run("creates an empty file", func(t *testing.T) {
		store := openTestStore(t)

		raw, err := os.ReadFile(store.Path())
		require.NoError(t, err)
		assert.JSONEq(t, `{"sessions":[],"templates":{}}`, string(raw))
	})

	t.Run("creates parent directories", func(t *testing.T) {
		path := filepath.Join(testutil.TempDir(t), "a", "b", "data.json")
		_, err := Open(path)
		require.NoError(t, err)
		assert.FileExists(t, path)
	})

	t.Run("rejects a corrupt file", func(t *testing.T) {
		path := filepath.Join(testutil.TempDir(t), "data.json")
		require.NoError(t, os.WriteFile(path, []byte("{nope"), 0644))

		_, err := Open(path)
		require.Error(t, err)
	})
}

func TestStore_Create(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	first, err := store.Create(ctx)
	require.NoError(t, err)
	second, err := store.Create(ctx)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{8}$`), first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, DefaultTitle, first.Title)
	assert.Empty(t, first.History)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Summary{
		{ID: second.ID, Title: DefaultTitle},
		{ID: first.ID, Title: DefaultTitle},
	}, list)
}

func TestStore_GetDelete(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	sess, err := store.Create(ctx)
	require.NoError(t, err)

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	require.NoError(t, store.Delete(ctx, sess.ID))

	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(ctx, sess.ID), ErrSessionNotFound)
}

func TestStore_AppendExchange(t *testing.T) {
	ctx := context.Background()

	newExchange := func(t *testing.T, question, reply, title string) Exchange {
		t.Helper()
		a, err := NewAssistantEntry(reply)
		require.NoError(t, err)
		return Exchange{User: NewUserEntry(question), Assistant: a, Title: title}
	}

	t.Run("appends both entries and titles the session", func(t *testing.T) {
		store := openTestStore(t)
		sess, err := store.Create(ctx)
		require.NoError(t, err)

		got, err := store.AppendExchange(ctx, sess.ID, newExchange(t, "what is go", "A language.", "what is go"))
		require.NoError(t, err)
		require.Len(t, got.History, 2)
		assert.Equal(t, "what is go", got.Title)

		assert.Equal(t, RoleUser, got.History[0].Role)
		assert.Equal(t, "what is go", got.History[0].Question)
		assert.Equal(t, RoleAssistant, got.History[1].Role)
		assert.Equal(t, answer.PlainText("A language."), got.History[1].Answer())
		assert.Equal(t, &Feedback{}, got.History[1].Feedback)
	})

	t.Run("keeps an existing title", func(t *testing.T) {
		store := openTestStore(t)
		sess, err := store.Create(ctx)
		require.NoError(t, err)

		_, err = store.AppendExchange(ctx, sess.ID, newExchange(t, "first", "r", "first"))
		require.NoError(t, err)
		got, err := store.AppendExchange(ctx, sess.ID, newExchange(t, "second", "r", "second"))
		require.NoError(t, err)

		assert.Equal(t, "first", got.Title)
		assert.Len(t, got.History, 4)
	})

	t.Run("empty title leaves the default", func(t *testing.T) {
		store := openTestStore(t)
		sess, err := store.Create(ctx)
		require.NoError(t, err)

		got, err := store.AppendExchange(ctx, sess.ID, newExchange(t, "hi", "Hello!", ""))
		require.NoError(t, err)
		assert.Equal(t, DefaultTitle, got.Title)
	})

	t.Run("unknown session", func(t *testing.T) {
		store := openTestStore(t)
		_, err := store.AppendExchange(ctx, "missing", newExchange(t, "q", "r", ""))
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestStore_ToggleFeedback(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	sess, err := store.Create(ctx)
	require.NoError(t, err)
	a, err := NewAssistantEntry("reply")
	require.NoError(t, err)
	_, err = store.AppendExchange(ctx, sess.ID, Exchange{User: NewUserEntry("q"), Assistant: a})
	require.NoError(t, err)

	steps := []struct {
		vote Vote
		want Feedback
	}{
		{VoteLike, Feedback{Likes: 1}},
		{VoteLike, Feedback{}},
		{VoteDislike, Feedback{Dislikes: 1}},
		{VoteLike, Feedback{Likes: 1}},
		{VoteDislike, Feedback{Dislikes: 1}},
		{VoteDislike, Feedback{}},
	}
	for i, step := range steps {
		got, err := store.ToggleFeedback(ctx, sess.ID, a.ID, step.vote)
		require.NoError(t, err)
		assert.Equal(t, step.want, got, "step %d", i)
	}

	stored, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, &Feedback{}, stored.History[1].Feedback)

	_, err = store.ToggleFeedback(ctx, sess.ID, "missing", VoteLike)
	assert.ErrorIs(t, err, ErrEntryNotFound)
	_, err = store.ToggleFeedback(ctx, "missing", a.ID, VoteLike)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.ToggleFeedback(ctx, sess.ID, a.ID, "love")
	assert.Error(t, err)
}

func TestStore_FeedbackOnLegacyEntry(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(testutil.TempDir(t), "data.json")
	legacy := `{"sessions":[{"id":"s1","title":"Old","history":[{"id":"e1","response":"text"}]}],"templates":{}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	store, err := Open(path)
	require.NoError(t, err)

	sess, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, RoleAssistant, sess.History[0].EffectiveRole())

	got, err := store.ToggleFeedback(ctx, "s1", "e1", VoteDislike)
	require.NoError(t, err)
	assert.Equal(t, Feedback{Dislikes: 1}, got)
}

func TestStore_PreservesTemplatesAndStructuredResponses(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(testutil.TempDir(t), "data.json")
	seed := `{
  "sessions": [
    {"id": "s1", "title": "Tables", "history": [
      {"id": "e1", "role": "assistant", "response": {"type": "table", "columns": ["A"], "rows": [[1]]}}
    ]}
  ],
  "templates": {"greeting": {"text": "hi"}, "list": [1, 2]}
}`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0644))

	store, err := Open(path)
	require.NoError(t, err)
	_, err = store.Create(ctx)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var written struct {
		Templates json.RawMessage `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(raw, &written))
	assert.JSONEq(t, `{"greeting": {"text": "hi"}, "list": [1, 2]}`, string(written.Templates))

	sess, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, answer.Table{Columns: []string{"A"}, Rows: [][]string{{"1"}}}, sess.History[0].Answer())
}

func TestStore_PreservesUnknownFields(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(testutil.TempDir(t), "data.json")
	seed := `{
  "version": 2,
  "sessions": [
    {"id": "s1", "title": "Go", "pinned": true, "history": [
      {"id": "e1", "role": "user", "question": "what is go", "timestamp": "2024-05-01T10:00:00Z"},
      {"id": "e2", "role": "assistant", "response": "A language.", "model": "gemini-2.5-pro",
       "feedback": {"likes": 0, "dislikes": 0}}
    ]}
  ],
  "templates": {}
}`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0644))

	store, err := Open(path)
	require.NoError(t, err)
	_, err = store.ToggleFeedback(ctx, "s1", "e2", VoteLike)
	require.NoError(t, err)
	reply, err := NewAssistantEntry("Another language.")
	require.NoError(t, err)
	_, err = store.AppendExchange(ctx, "s1", Exchange{User: NewUserEntry("and rust?"), Assistant: reply})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var written struct {
		Version  int `json:"version"`
		Sessions []struct {
			Pinned  bool                         `json:"pinned"`
			History []map[string]json.RawMessage `json:"history"`
		} `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(raw, &written))
	assert.Equal(t, 2, written.Version)
	require.Len(t, written.Sessions, 1)
	assert.True(t, written.Sessions[0].Pinned)

	history := written.Sessions[0].History
	require.Len(t, history, 4)
	assert.JSONEq(t, `"2024-05-01T10:00:00Z"`, string(history[0]["timestamp"]))
	assert.JSONEq(t, `"gemini-2.5-pro"`, string(history[1]["model"]))
	assert.JSONEq(t, `{"likes": 1, "dislikes": 0}`, string(history[1]["feedback"]))
	assert.NotContains(t, history[2], "timestamp")

	sess, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Go", sess.Title)
	assert.Equal(t, answer.PlainText("A language."), sess.History[1].Answer())
}

func TestStore_SeesExternalEdits(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	external := `{"sessions":[{"id":"ext","title":"Outside","history":[]}],"templates":{}}`
	require.NoError(t, os.WriteFile(store.Path(), []byte(external), 0644))

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Summary{{ID: "ext", Title: "Outside"}}, list)
}

func TestStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	sess, err := store.Create(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := NewAssistantEntry(fmt.Sprintf("reply %d", i))
			if err != nil {
				return
			}
			_, _ = store.AppendExchange(ctx, sess.ID, Exchange{User: NewUserEntry("q"), Assistant: a})
		}(i)
	}
	wg.Wait()

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, got.History, 20)
}

func TestStore_CancelledContext(t *testing.T) {
	store := openTestStore(t)

	// Hold the file lock from a second handle so acquisition has to wait.
	other, err := Open(store.Path())
	require.NoError(t, err)
	locked, err := other.lock.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	t.Cleanup(func() { _ = other.lock.Unlock() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Create(ctx)
	require.Error(t, err)
}

func TestFeedback_Toggle(t *testing.T) {
	assert.Equal(t, Feedback{Likes: 1}, Feedback{Dislikes: 1}.Toggle(VoteLike))
	assert.Equal(t, Feedback{Dislikes: 1}, Feedback{Likes: 1}.Toggle(VoteDislike))
	assert.Equal(t, Feedback{Likes: 1}, Feedback{Likes: 1}.Toggle("other"))
	assert.True(t, VoteLike.Valid())
	assert.False(t, Vote("like ").Valid())
}

func TestSession_Untitled(t *testing.T) {
	assert.True(t, Session{}.Untitled())
	assert.True(t, Session{Title: " New Chat "}.Untitled())
	assert.False(t, Session{Title: "Go"}.Untitled())
}
