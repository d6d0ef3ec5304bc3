package tui

import (
	"context"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todo/internal/api"
	"github.com/idilsaglam/todo/internal/apitest"
	"github.com/idilsaglam/todo/internal/model"
)

func newTestModel(t *testing.T, srv *apitest.Server) Model {
	t.Helper()
	c, err := api.New(srv.URL(), api.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return steady(New(context.Background(), c, Options{NoticeTTL: time.Millisecond}))
}

func newFakeModel(f *fakeRemote) Model {
	return steady(New(context.Background(), f, Options{NoticeTTL: time.Millisecond}))
}

// steady stops cursor blinking; blink commands sleep until the next frame.
func steady(m Model) Model {
	m.input.Cursor.SetMode(cursor.CursorStatic)
	return m
}

// mounted runs Init and the resulting list fetch.
func mounted(t *testing.T, srv *apitest.Server) Model {
	t.Helper()
	m := newTestModel(t, srv)
	return settle(t, m, m.Init())
}

// step feeds msg through Update and then settles the commands it returns.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	return settle(t, next.(Model), cmd)
}

// settle runs cmd and feeds back the controller's own messages until none
// remain. Timer and blink messages are dropped so tests never wait on them.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := collect(cmd)
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 50 {
			t.Fatalf("controller did not settle")
		}
		msg := queue[0]
		queue = queue[1:]
		next, c := m.Update(msg)
		m = next.(Model)
		queue = append(queue, collect(c)...)
	}
	return m
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, collect(c)...)
		}
		return out
	case itemsLoadedMsg, mutationDoneMsg:
		return []tea.Msg{msg}
	}
	return nil
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	return step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func press(t *testing.T, m Model, k tea.KeyType) Model {
	t.Helper()
	return step(t, m, tea.KeyMsg{Type: k})
}

func pressRune(t *testing.T, m Model, r rune) Model {
	t.Helper()
	return step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

func itemsEqual(a, b []model.Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// fakeRemote answers from fixed values without a server.
type fakeRemote struct {
	items     []model.Item
	listErr   error
	toggleErr error
	toggled   []int64
	created   []string
	deleted   []int64
	lists     int
}

func (f *fakeRemote) ListItems(context.Context) ([]model.Item, error) {
	f.lists++
	return append([]model.Item(nil), f.items...), f.listErr
}

func (f *fakeRemote) CreateItem(_ context.Context, content string) (model.Item, error) {
	f.created = append(f.created, content)
	return model.Item{}, nil
}

func (f *fakeRemote) ToggleItem(_ context.Context, id int64, _ bool) error {
	f.toggled = append(f.toggled, id)
	return f.toggleErr
}

func (f *fakeRemote) DeleteItem(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}
