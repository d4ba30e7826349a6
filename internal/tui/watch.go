// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/toeirei/sshlure/internal/i18n"
	"github.com/toeirei/sshlure/internal/model"
)

// Source is the read side the dashboard polls. db.Store satisfies it.
type Source interface {
	RecentAttempts(ctx context.Context, limit int) ([]model.Attempt, error)
	Summary(ctx context.Context) (model.Summary, error)
}

const (
	defaultInterval = 2 * time.Second
	defaultLimit    = 200
	fetchTimeout    = 5 * time.Second
	secretWidth     = 32
)

type tickMsg time.Time

type dataMsg struct {
	attempts []model.Attempt
	summary  model.Summary
	err      error
	at       time.Time
}

// watchModel renders the most recent attempts and refreshes on a timer.
type watchModel struct {
	src      Source
	interval time.Duration
	limit    int

	table    table.Model
	attempts []model.Attempt
	summary  model.Summary
	updated  time.Time
	err      error

	paused      bool
	filter      string
	isFiltering bool
}

func newWatchModel(src Source, interval time.Duration, limit int) watchModel {
	if interval <= 0 {
		interval = defaultInterval
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	columns := []table.Column{
		{Title: i18n.T("watch.col_time"), Width: 19},
		{Title: i18n.T("watch.col_client"), Width: 39},
		{Title: i18n.T("watch.col_method"), Width: 10},
		{Title: i18n.T("watch.col_username"), Width: 20},
		{Title: i18n.T("watch.col_secret"), Width: secretWidth + 1},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorSubtle).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(colorWhite).
		Background(colorHighlight).
		Bold(false)
	t.SetStyles(s)

	return watchModel{src: src, interval: interval, limit: limit, table: t}
}

func (m watchModel) fetch() tea.Cmd {
	src, limit := m.src, m.limit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		attempts, err := src.RecentAttempts(ctx, limit)
		if err != nil {
			return dataMsg{err: err, at: time.Now()}
		}
		sum, err := src.Summary(ctx)
		return dataMsg{attempts: attempts, summary: sum, err: err, at: time.Now()}
	}
}

func (m watchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.tick())
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// title(2) + summary(2) + help(2) + margins
		m.table.SetHeight(max(msg.Height-10, 3))
		m.table.SetWidth(msg.Width - 4)
		return m, nil

	case tickMsg:
		if m.paused {
			return m, m.tick()
		}
		return m, tea.Batch(m.fetch(), m.tick())

	case dataMsg:
		m.err = msg.err
		if msg.err == nil {
			m.attempts = msg.attempts
			m.summary = msg.summary
			m.updated = msg.at
			m.rebuildTableRows()
		}
		return m, nil

	case tea.KeyMsg:
		if m.isFiltering {
			switch msg.Type {
			case tea.KeyEsc:
				m.isFiltering = false
				m.filter = ""
			case tea.KeyEnter:
				m.isFiltering = false
			case tea.KeyBackspace:
				if len(m.filter) > 0 {
					r := []rune(m.filter)
					m.filter = string(r[:len(r)-1])
				}
			case tea.KeyRunes:
				m.filter += string(msg.Runes)
			}
			m.rebuildTableRows()
			return m, nil
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.filter != "" {
				m.filter = ""
				m.rebuildTableRows()
				return m, nil
			}
			return m, tea.Quit
		case "p", " ":
			m.paused = !m.paused
			return m, nil
		case "r":
			return m, m.fetch()
		case "/":
			m.isFiltering = true
			m.filter = ""
			m.rebuildTableRows()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// rebuildTableRows applies the filter to the fetched attempts.
func (m *watchModel) rebuildTableRows() {
	lowerFilter := strings.ToLower(m.filter)
	rows := make([]table.Row, 0, len(m.attempts))
	for _, a := range m.attempts {
		if m.filter != "" &&
			!strings.Contains(strings.ToLower(a.ClientIP), lowerFilter) &&
			!strings.Contains(strings.ToLower(a.Username), lowerFilter) &&
			!strings.Contains(strings.ToLower(a.Secret), lowerFilter) &&
			!strings.Contains(string(a.AuthType), lowerFilter) {
			continue
		}
		rows = append(rows, table.Row{
			a.Timestamp.Local().Format("2006-01-02 15:04:05"),
			a.ClientIP,
			methodCell(a.AuthType),
			a.Username,
			truncate(a.Secret, secretWidth),
		})
	}
	m.table.SetRows(rows)
}

func methodCell(m model.AuthMethod) string {
	switch m {
	case model.AuthPassword:
		return passwordCell.Render(m.String())
	case model.AuthPublicKey:
		return keyCell.Render(m.String())
	default:
		return noneCell.Render(m.String())
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (m watchModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(i18n.T("watch.title")) + "\n\n")

	sum := m.summary
	b.WriteString(i18n.T("watch.summary",
		statStyle.Render(fmt.Sprint(sum.Connections)),
		statStyle.Render(fmt.Sprint(sum.UniqueSources)),
		statStyle.Render(fmt.Sprint(sum.Attempts)),
		sum.ByMethod[model.AuthPassword], sum.ByMethod[model.AuthPublicKey], sum.ByMethod[model.AuthNone]))
	if m.paused {
		b.WriteString("  " + pausedStyle.Render(i18n.T("watch.paused")))
	}
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(i18n.T("watch.refresh_failed", m.err)) + "\n")
	}
	b.WriteString(m.table.View() + "\n")

	if m.isFiltering {
		b.WriteString(i18n.T("watch.filter_input", m.filter) + "\n")
	} else if m.filter != "" {
		b.WriteString(helpStyle.Render(i18n.T("watch.filter", m.filter)) + "\n")
	}

	updated := i18n.T("watch.never")
	if !m.updated.IsZero() {
		updated = m.updated.Format("15:04:05")
	}
	b.WriteString(helpStyle.Render(i18n.T("watch.help", updated)))
	return docStyle.Render(b.String())
}

// Run starts the dashboard and blocks until the user quits or ctx is done.
func Run(ctx context.Context, src Source, interval time.Duration, limit int) error {
	p := tea.NewProgram(newWatchModel(src, interval, limit), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
