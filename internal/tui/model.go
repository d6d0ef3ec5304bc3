// Package tui is the interactive client: an input form above the to-do list.
//
// The Model is the only owner of client state. Every mutation is followed by
// a full list fetch and the list is only ever replaced by such a fetch.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/idilsaglam/todo/internal/api"
	"github.com/idilsaglam/todo/internal/logging"
	"github.com/idilsaglam/todo/internal/metrics"
	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/notify"
)

// contentLimit matches the server's content column.
const contentLimit = 125

// Terminal size assumed until the first WindowSizeMsg.
const (
	defaultWidth  = 80
	defaultHeight = 24
)

// Remote is the subset of *api.Client the controller drives.
type Remote interface {
	ListItems(ctx context.Context) ([]model.Item, error)
	CreateItem(ctx context.Context, content string) (model.Item, error)
	ToggleItem(ctx context.Context, id int64, completed bool) error
	DeleteItem(ctx context.Context, id int64) error
}

// State is the data the screen is rendered from.
type State struct {
	Items    []model.Item
	FormText string
}

type focus int

const (
	focusForm focus = iota
	focusList
)

// itemsLoadedMsg carries a list response. seq orders fetches; items may be
// set even when err is (a non-2xx response with a decodable body).
type itemsLoadedMsg struct {
	seq   int
	items []model.Item
	err   error
}

// mutationDoneMsg reports a finished create, toggle or delete.
type mutationDoneMsg struct {
	op  string
	id  int64
	err error
}

type Options struct {
	Logger    *log.Logger
	Metrics   *metrics.Recorder
	NoticeTTL time.Duration
}

type Model struct {
	state State

	ctx     context.Context
	remote  Remote
	log     *log.Logger
	metrics *metrics.Recorder

	input    textinput.Model
	list     list.Model
	spinner  spinner.Model
	help     help.Model
	listKeys listKeyMap
	formKeys formKeyMap
	notice   notify.Notifier

	focus  focus
	width  int
	height int

	fetchSeq   int // last fetch issued
	appliedSeq int // newest fetch whose items were applied
	loaded     bool

	// pending holds toggled rows. The value is the seq of the re-fetch that
	// follows the toggle, or 0 while the PATCH is still in flight; only a
	// snapshot at least that new clears the row.
	pending map[int64]int
}

func New(ctx context.Context, remote Remote, opt Options) Model {
	if opt.Logger == nil {
		opt.Logger = logging.Discard()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Add item"
	ti.CharLimit = contentLimit
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(togglingStyle))

	h := help.New()
	h.Styles.ShortKey = helpStyle
	h.Styles.ShortDesc = helpStyle
	h.Styles.ShortSeparator = helpStyle

	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	m := Model{
		ctx:      ctx,
		remote:   remote,
		log:      opt.Logger,
		metrics:  opt.Metrics,
		input:    ti,
		list:     l,
		spinner:  sp,
		help:     h,
		listKeys: newListKeyMap(),
		formKeys: newFormKeyMap(),
		notice:   notify.New(opt.NoticeTTL),
		focus:    focusForm,
		fetchSeq: 1,
		pending:  map[int64]int{},
	}
	m.resize(defaultWidth, defaultHeight)
	return m
}

// State returns a copy of the current state.
func (m Model) State() State {
	s := m.state
	s.Items = append([]model.Item(nil), m.state.Items...)
	return s
}

// Init is the mount event: fetch the list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.listCmd(m.fetchSeq), textinput.Blink)
}

// ---------------------------------------------------
// Commands (each runs one API call off the update loop)
// ---------------------------------------------------

func (m *Model) fetch() tea.Cmd {
	m.fetchSeq++
	return m.listCmd(m.fetchSeq)
}

func (m Model) listCmd(seq int) tea.Cmd {
	ctx, r := m.ctx, m.remote
	return func() tea.Msg {
		items, err := r.ListItems(ctx)
		return itemsLoadedMsg{seq: seq, items: items, err: err}
	}
}

func (m Model) createCmd(content string) tea.Cmd {
	ctx, r := m.ctx, m.remote
	return func() tea.Msg {
		_, err := r.CreateItem(ctx, content)
		return mutationDoneMsg{op: api.OpCreate, err: err}
	}
}

func (m Model) toggleCmd(it model.Item) tea.Cmd {
	ctx, r := m.ctx, m.remote
	return func() tea.Msg {
		err := r.ToggleItem(ctx, it.ID, it.Completed)
		return mutationDoneMsg{op: api.OpToggle, id: it.ID, err: err}
	}
}

func (m Model) deleteCmd(id int64) tea.Cmd {
	ctx, r := m.ctx, m.remote
	return func() tea.Msg {
		err := r.DeleteItem(ctx, id)
		return mutationDoneMsg{op: api.OpDelete, id: id, err: err}
	}
}
