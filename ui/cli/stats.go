// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/toeirei/sshlure/internal/i18n"
	"github.com/toeirei/sshlure/internal/model"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	headerCell   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	bodyCell     = lipgloss.NewStyle().Padding(0, 1)
)

// statsSource is the read side the report needs.
type statsSource interface {
	Summary(ctx context.Context) (model.Summary, error)
	TopCredentials(ctx context.Context, limit int) ([]model.CredentialCount, error)
	TopUsernames(ctx context.Context, limit int) ([]model.UsernameCount, error)
	TopSources(ctx context.Context, limit int) ([]model.SourceCount, error)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print a summary of captured attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			_, store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			return writeStats(cmd.Context(), cmd.OutOrStdout(), store, limit)
		},
	}
	cmd.Flags().Int("limit", 10, "Number of rows in each top list")
	return cmd
}

func writeStats(ctx context.Context, w io.Writer, src statsSource, limit int) error {
	sum, err := src.Summary(ctx)
	if err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	creds, err := src.TopCredentials(ctx, limit)
	if err != nil {
		return fmt.Errorf("top credentials: %w", err)
	}
	users, err := src.TopUsernames(ctx, limit)
	if err != nil {
		return fmt.Errorf("top usernames: %w", err)
	}
	sources, err := src.TopSources(ctx, limit)
	if err != nil {
		return fmt.Errorf("top sources: %w", err)
	}

	overview := [][]string{
		{i18n.T("stats.connections"), strconv.FormatInt(sum.Connections, 10)},
		{i18n.T("stats.unique_sources"), strconv.FormatInt(sum.UniqueSources, 10)},
		{i18n.T("stats.attempts"), strconv.FormatInt(sum.Attempts, 10)},
	}
	for _, m := range model.AuthMethods {
		overview = append(overview, []string{"  " + m.String(), strconv.FormatInt(sum.ByMethod[m], 10)})
	}
	overview = append(overview,
		[]string{i18n.T("stats.first_seen"), formatSeen(sum.FirstSeen)},
		[]string{i18n.T("stats.last_seen"), formatSeen(sum.LastSeen)},
	)
	section(w, i18n.T("stats.summary"), []string{i18n.T("stats.metric"), i18n.T("stats.value")}, overview)

	rows := make([][]string, 0, len(creds))
	for _, c := range creds {
		rows = append(rows, []string{c.Username, c.Secret, strconv.FormatInt(c.Attempts, 10)})
	}
	section(w, i18n.T("stats.top_credentials"), []string{i18n.T("stats.username"), i18n.T("stats.password"), i18n.T("stats.attempts")}, rows)

	rows = make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.Username, strconv.FormatInt(u.Attempts, 10)})
	}
	section(w, i18n.T("stats.top_usernames"), []string{i18n.T("stats.username"), i18n.T("stats.attempts")}, rows)

	rows = make([][]string, 0, len(sources))
	for _, s := range sources {
		rows = append(rows, []string{s.ClientIP, strconv.FormatInt(s.Attempts, 10)})
	}
	section(w, i18n.T("stats.top_sources"), []string{i18n.T("stats.client_ip"), i18n.T("stats.attempts")}, rows)
	return nil
}

func section(w io.Writer, title string, headers []string, rows [][]string) {
	fmt.Fprintln(w, headingStyle.Render(title))
	if len(rows) == 0 {
		fmt.Fprintln(w, "  "+i18n.T("stats.none"))
		fmt.Fprintln(w)
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCell
			}
			return bodyCell
		})
	fmt.Fprintln(w, t.String())
	fmt.Fprintln(w)
}

func formatSeen(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
