package ui

import (
	"context"
	"fmt"

	"github.com/bradcj/intersect/internal/models"
	"github.com/bradcj/intersect/internal/tasks"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	GroupListView ViewState = iota
	PreviewView
	ConfirmView
	GenerateView
	ResultView
)

// GroupLister is the slice of group persistence the TUI needs.
type GroupLister interface {
	ListByMember(userID string) ([]*models.Group, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       tasks.Engine
	groups       GroupLister
	userID       string
	width        int
	height       int
	groupList    list.Model
	songList     list.Model
	selected     *models.Group
	preview      *tasks.PreviewResult
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	result       *tasks.MaterializeResult
	err          error
	help         help.Model
	keys         keyMap
}

type groupsFetchedMsg struct {
	groups []*models.Group
	err    error
}

type previewReadyMsg struct {
	result *tasks.PreviewResult
	err    error
}

type progressUpdateMsg tasks.ProgressUpdate

type generateCompleteMsg struct {
	result *tasks.MaterializeResult
	err    error
}

// NewModel creates a new TUI model with the provided dependencies.
//
// userID is the signed-in user acting on every operation.
func NewModel(ctx context.Context, engine tasks.Engine, groups GroupLister, userID string) *Model {
	return &Model{
		ctx:    ctx,
		view:   GroupListView,
		engine: engine,
		groups: groups,
		userID: userID,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init initializes the TUI by fetching the user's groups.
func (m *Model) Init() tea.Cmd {
	return m.fetchGroups()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.groupList.Width() == 0 {
			m.groupList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.songList.Width() == 0 {
			m.songList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case GroupListView:
			return m.handleGroupListKeys(msg)
		case PreviewView:
			return m.handlePreviewKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case groupsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.groups))
		for i, group := range msg.groups {
			items[i] = groupItem{group: group}
		}
		m.groupList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.groupList.Title = "Your Groups"
		m.groupList.SetSize(m.width-4, m.height-8)
		return m, nil

	case previewReadyMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = GroupListView
			return m, nil
		}
		m.preview = msg.result
		items := make([]list.Item, len(msg.result.Songs))
		for i, song := range msg.result.Songs {
			items[i] = songItem{song: song}
		}
		m.songList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.songList.Title = fmt.Sprintf("Songs everyone in '%s' likes", m.selected.Name())
		m.songList.SetSize(m.width-4, m.height-8)
		m.view = PreviewView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case generateCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		if m.progressChan != nil {
			m.progressChan = nil
		}
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case GroupListView:
		return m.renderGroupList()
	case PreviewView:
		return m.renderPreview()
	case ConfirmView:
		return m.renderConfirm()
	case GenerateView:
		return m.renderGenerate()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleGroupListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.groupList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(groupItem); ok {
				m.selected = item.group
				return m, m.runPreview(item.group.ID())
			}
		}
	}

	var cmd tea.Cmd
	m.groupList, cmd = m.groupList.Update(msg)
	return m, cmd
}

func (m *Model) handlePreviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = GroupListView
		return m, nil
	case "enter":
		if m.preview != nil && m.preview.Preview.Count > 0 {
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n":
		m.view = PreviewView
		return m, nil
	case "y":
		m.view = GenerateView
		return m, m.startGenerate()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = GroupListView
		m.selected = nil
		m.preview = nil
		m.result = nil
		m.err = nil
		return m, m.fetchGroups()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case GroupListView:
		m.groupList, cmd = m.groupList.Update(msg)
	case PreviewView:
		m.songList, cmd = m.songList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchGroups() tea.Cmd {
	return func() tea.Msg {
		groups, err := m.groups.ListByMember(m.userID)
		return groupsFetchedMsg{groups: groups, err: err}
	}
}

func (m *Model) runPreview(groupID string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.engine.PreviewGroup(m.ctx, groupID, nil)
		return previewReadyMsg{result: result, err: err}
	}
}

func (m *Model) startGenerate() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	progressChan := m.progressChan

	go func() {
		result, err := m.engine.Materialize(m.ctx, m.selected.ID(), m.preview.Preview.ID, m.userID, progressChan)
		m.result = result
		m.err = err
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return generateCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return generateCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderGroupList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.groupList.View(), helpView)
}

func (m *Model) renderPreview() string {
	if m.preview != nil && m.preview.Preview.Count == 0 {
		title := styles.warn.Render("No songs in common")
		body := "Nobody's liked songs overlap yet."
		if len(m.preview.Empty) > 0 {
			body = fmt.Sprintf("Waiting on likes from: %v", m.preview.Empty)
		}
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
		return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, helpView)
	}

	generateKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "generate"))
	helpKeys := []key.Binding{generateKey, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.songList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Create shared playlist for '%s'?", m.selected.Name()))
	info := fmt.Sprintf("\nGroup: %s\nSongs in common: %d\n", m.selected.Name(), m.preview.Preview.Count)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderGenerate() string {
	title := styles.title.Render("Generating Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.CreatePlaylist:
		phase = "Creating playlist on YouTube..."
	case tasks.AddItems:
		phase = fmt.Sprintf("Adding songs (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.SaveGroup:
		phase = "Saving group state..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Generation failed: %v\n\nPress r to start over, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to start over, q to quit")
	}

	title := styles.ok.Render("✓ Playlist Created!")
	info := fmt.Sprintf(
		"\nPlaylist: %s (ID: %s)\nSongs added: %d/%d",
		m.result.Title,
		m.result.PlaylistID,
		m.result.Added,
		m.result.Total,
	)

	var failed string
	if len(m.result.Failed) > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("Could not add %d songs:", len(m.result.Failed))))
		for _, failure := range m.result.Failed {
			failed += fmt.Sprintf("\n  • %s - %s", failure.Song.Channel, failure.Song.Title)
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
