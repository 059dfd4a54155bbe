package cli

import (
	"context"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yolodolo42/mockchat/internal/chat"
	"github.com/yolodolo42/mockchat/internal/render"
	"github.com/yolodolo42/mockchat/internal/session"
	"github.com/yolodolo42/mockchat/internal/testutil"
)

func newTestREPL(t *testing.T) (model, *session.Store, *stubProvider) {
	t.Helper()
	store, err := session.Open(filepath.Join(testutil.TempDir(t), "mock-data.json"))
	require.NoError(t, err)

	p := &stubProvider{reply: "# Go\n\nA **compiled** language."}
	svc := chat.NewService(store, p, chat.WithLogger(testutil.Logger(t)))

	m := initialModel(context.Background(), svc, render.ThemeDark)
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, store, p
}

func send(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(model)
	require.True(t, ok)
	return out
}

// submit types text and presses enter, running the returned command once.
func submit(t *testing.T, m model, text string) model {
	t.Helper()
	m = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(model)
	if cmd != nil && m.loading {
		m = send(t, m, cmd())
	}
	return m
}

func lastMessage(m model) chatMessage {
	return m.messages[len(m.messages)-1]
}

func TestREPL_Ask(t *testing.T) {
	m, store, p := newTestREPL(t)
	require.True(t, m.ready)
	assert.Contains(t, m.View(), "New Chat")

	m = submit(t, m, "What is Go?")
	assert.False(t, m.loading)
	assert.Equal(t, 1, p.calls)
	require.NotEmpty(t, m.session.ID)
	assert.Equal(t, "What is Go?", m.session.Title)

	last := lastMessage(m)
	require.Equal(t, "assistant", last.role)
	require.NotNil(t, last.entry)
	assert.Contains(t, m.viewport.View(), "compiled")
	assert.Contains(t, m.View(), "What is Go?")

	sess, err := store.Get(context.Background(), m.session.ID)
	require.NoError(t, err)
	assert.Len(t, sess.History, 2)

	// A second question stays in the same session.
	id := m.session.ID
	m = submit(t, m, "And Rust?")
	assert.Equal(t, id, m.session.ID)
	sess, err = store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, sess.History, 4)
}

func TestREPL_EmptyInputIgnored(t *testing.T) {
	m, _, p := newTestREPL(t)
	before := len(m.messages)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(model)
	assert.Nil(t, cmd)
	assert.Len(t, m.messages, before)
	assert.Zero(t, p.calls)
}

func TestREPL_Feedback(t *testing.T) {
	m, store, _ := newTestREPL(t)

	m = submit(t, m, "/like")
	assert.Equal(t, "error", lastMessage(m).role)

	m = submit(t, m, "What is Go?")
	answerID := lastMessage(m).entry.ID

	m = submit(t, m, "/like")
	fb := lastMessage(m).entry.Feedback
	require.NotNil(t, fb)
	assert.Equal(t, session.Feedback{Likes: 1}, *fb)

	m = submit(t, m, "/dislike")
	assert.Equal(t, session.Feedback{Dislikes: 1}, *lastMessage(m).entry.Feedback)

	sess, err := store.Get(context.Background(), m.session.ID)
	require.NoError(t, err)
	entry, ok := sess.Entry(answerID)
	require.True(t, ok)
	assert.Equal(t, session.Feedback{Dislikes: 1}, *entry.Feedback)
}

func TestREPL_Commands(t *testing.T) {
	t.Run("theme toggles", func(t *testing.T) {
		m, _, _ := newTestREPL(t)
		m = submit(t, m, "/theme")
		assert.Equal(t, render.ThemeLight, m.styles.Theme)
		assert.Equal(t, "Theme: light", lastMessage(m).content)
		m = submit(t, m, "/theme")
		assert.Equal(t, render.ThemeDark, m.styles.Theme)
	})

	t.Run("new clears the session", func(t *testing.T) {
		m, _, _ := newTestREPL(t)
		m = submit(t, m, "What is Go?")
		require.NotEmpty(t, m.session.ID)

		m = submit(t, m, "/new")
		assert.Empty(t, m.session.ID)
		assert.Len(t, m.messages, 1)
	})

	t.Run("model lists and switches", func(t *testing.T) {
		m, _, p := newTestREPL(t)
		m = submit(t, m, "/model")
		assert.Contains(t, lastMessage(m).content, "stub-2")
		assert.Contains(t, lastMessage(m).content, "Active: stub-1")

		m = submit(t, m, "/model stub-2")
		assert.Equal(t, "stub-2", p.DefaultModel())

		m = submit(t, m, "/model nope")
		assert.Equal(t, "error", lastMessage(m).role)
	})

	t.Run("unknown command", func(t *testing.T) {
		m, _, _ := newTestREPL(t)
		m = submit(t, m, "/dance")
		assert.Equal(t, "error", lastMessage(m).role)
		assert.Contains(t, lastMessage(m).content, "Unknown command: /dance")
	})

	t.Run("help", func(t *testing.T) {
		m, _, _ := newTestREPL(t)
		m = submit(t, m, "/help")
		assert.Contains(t, lastMessage(m).content, "/sessions")
	})

	t.Run("delete", func(t *testing.T) {
		m, store, _ := newTestREPL(t)
		m = submit(t, m, "/delete")
		assert.Equal(t, "error", lastMessage(m).role)

		m = submit(t, m, "What is Go?")
		id := m.session.ID
		m = submit(t, m, "/delete")
		assert.Empty(t, m.session.ID)

		_, err := store.Get(context.Background(), id)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("quit", func(t *testing.T) {
		m, _, _ := newTestREPL(t)
		m = submit(t, m, "/quit")
		assert.True(t, m.quitting)
		assert.Equal(t, "Goodbye!\n", m.View())
	})
}

func TestREPL_SessionPicker(t *testing.T) {
	m, store, _ := newTestREPL(t)
	ctx := context.Background()

	older, err := store.Create(ctx)
	require.NoError(t, err)
	_, err = m.svc.Ask(ctx, older.ID, "Tell me about channels")
	require.NoError(t, err)

	m = submit(t, m, "What is Go?")
	current := m.session.ID

	m = submit(t, m, "/sessions")
	require.NotNil(t, m.selector)
	assert.Contains(t, m.View(), "Tell me about channels")

	// Keys go to the picker while it is open.
	m = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, m.selector)
	assert.NotEqual(t, current, m.session.ID)
	assert.Equal(t, older.ID, m.session.ID)
	assert.Equal(t, "assistant", lastMessage(m).role)

	m = submit(t, m, "/sessions")
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.selector)
	assert.Equal(t, older.ID, m.session.ID)

	m = submit(t, m, "/open "+current)
	assert.Equal(t, current, m.session.ID)

	m = submit(t, m, "/open missing")
	assert.Equal(t, "error", lastMessage(m).role)
}
