package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/keyline-id/keyline-go/internal/keys"
	"github.com/keyline-id/keyline-go/pkg/events"
	"github.com/keyline-id/keyline-go/pkg/session"
	"github.com/keyline-id/keyline-go/pkg/token"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Faint(true).Width(11)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

func newWatchCommand() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch <session-id>",
		Short: "Watch a session's token refreshes live",
		Long: `Watch periodically refreshes the session token and renders every
token-update event the SDK publishes, the same stream an application's
request interceptors consume.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFromEnv()
			if err != nil {
				return err
			}

			sess, err := client.FetchSession(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("fetch session: %w", err)
			}

			updates := make(chan *token.Token, 8)
			sub := client.Bus.Subscribe(events.TokenUpdate, func(payload any) {
				update, ok := payload.(events.TokenUpdatePayload)
				if !ok || update.Token == nil {
					return
				}
				// Handlers run on the dispatching goroutine; drop
				// rather than block when the UI lags.
				select {
				case updates <- update.Token:
				default:
				}
			})
			defer client.Bus.Unsubscribe(sub)

			model := watchModel{
				sess:     sess,
				interval: interval,
				updates:  updates,
			}
			_, err = tea.NewProgram(model).Run()
			return err
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", 30*time.Second, "refresh interval")

	return cmd
}

type tokenUpdateMsg struct{ token *token.Token }

type refreshDoneMsg struct{ err error }

type tickMsg time.Time

type watchModel struct {
	sess     *session.Session
	interval time.Duration
	updates  chan *token.Token

	current   *token.Token
	refreshes int
	lastErr   error
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.waitForUpdate(), m.tick())
}

func (m watchModel) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_, err := m.sess.GetToken(ctx, session.TokenOptions{SkipCache: true})
		return refreshDoneMsg{err: err}
	}
}

func (m watchModel) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		return tokenUpdateMsg{token: <-m.updates}
	}
}

func (m watchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.refresh()
		}
	case tokenUpdateMsg:
		m.current = msg.token
		m.refreshes++
		return m, m.waitForUpdate()
	case refreshDoneMsg:
		m.lastErr = msg.err
		return m, nil
	case tickMsg:
		return m, tea.Batch(m.refresh(), m.tick())
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("keyline session watch") + "\n\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + " " + value + "\n")
	}

	row("session", m.sess.ID)
	row("status", string(m.sess.Status))
	if m.current != nil {
		row("subject", m.current.Subject())
		if iss := m.current.Issuer(); iss != "" {
			row("issuer", keys.StripScheme(iss))
		}
		ttl := time.Until(m.current.ExpireAt()).Round(time.Second)
		if ttl > 0 {
			row("expires in", okStyle.Render(ttl.String()))
		} else {
			row("expires in", warnStyle.Render("expired"))
		}
	} else {
		row("token", "waiting for first resolution")
	}
	row("refreshes", strconv.Itoa(m.refreshes))

	if m.lastErr != nil {
		b.WriteString("\n" + warnStyle.Render("last error: "+m.lastErr.Error()) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("r refresh now · q quit") + "\n")
	return b.String()
}
