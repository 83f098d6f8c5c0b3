// package ui implements the terminal account manager and the scoped sync
// progress indicator.
package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pnavk/gMusic/internal/models"
	"github.com/pnavk/gMusic/internal/providers"
)

// serviceItem wraps a service (and its provider, when configured) to implement list.Item.
type serviceItem struct {
	service  models.ServiceType
	provider providers.Provider
}

func (i serviceItem) FilterValue() string { return i.service.Title() }
func (i serviceItem) Title() string       { return i.service.Title() }
func (i serviceItem) Description() string {
	if i.provider == nil {
		return "not signed in"
	}
	if email := i.provider.Email(); email != "" {
		return email
	}
	return "signed in (no account details)"
}

type toggleDoneMsg struct{}

type syncDoneMsg struct{ err error }

// Model is the accounts TUI state.
type Model struct {
	ctx      context.Context
	manager  *providers.Manager
	services []models.ServiceType
	list     list.Model
	help     help.Model
	keys     keyMap
	status   string
	busy     bool
	width    int
	height   int
}

// NewModel creates the accounts TUI over the given manager.
//
// services is the set of service types offered for login, in display order.
func NewModel(ctx context.Context, manager *providers.Manager, services []models.ServiceType) *Model {
	m := &Model{
		ctx:      ctx,
		manager:  manager,
		services: services,
		help:     help.New(),
		keys:     newKeyMap(),
	}
	m.list = list.New(m.items(), list.NewDefaultDelegate(), 0, 0)
	m.list.Title = "Accounts"
	return m
}

// items rebuilds the list rows from the current collection state.
func (m *Model) items() []list.Item {
	items := make([]list.Item, 0, len(m.services))
	for _, service := range m.services {
		items = append(items, serviceItem{
			service:  service,
			provider: m.manager.Lookup(service),
		})
	}
	return items
}

func (m *Model) Init() tea.Cmd { return nil }

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.enter):
			if item, ok := m.list.SelectedItem().(serviceItem); ok {
				m.busy = true
				m.status = fmt.Sprintf("Working on %s...", item.service.Title())
				return m, m.toggle(item.service)
			}
		case key.Matches(msg, m.keys.sync):
			m.busy = true
			m.status = "Syncing..."
			return m, m.resync()
		}

	case toggleDoneMsg:
		m.busy = false
		m.status = ""
		m.list.SetItems(m.items())
		return m, nil

	case syncDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Sync failed: %v", msg.err))
		} else {
			m.status = styles.ok.Render("Sync complete")
		}
		m.list.SetItems(m.items())
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the account list with the current status line.
func (m *Model) View() string {
	helpView := m.help.ShortHelpView(m.keys.ShortHelp())
	return fmt.Sprintf("%s\n%s\n\n%s", m.list.View(), m.status, helpView)
}

func (m *Model) toggle(service models.ServiceType) tea.Cmd {
	return func() tea.Msg {
		m.manager.LogInOut(m.ctx, service)
		return toggleDoneMsg{}
	}
}

func (m *Model) resync() tea.Cmd {
	return func() tea.Msg {
		return syncDoneMsg{err: m.manager.ReSync(m.ctx)}
	}
}
