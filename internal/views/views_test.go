package views

import (
	"bytes"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/helpdeskhq/helpdesk/internal/domain"
)

func render(t *testing.T, name string, binding fiber.Map) string {
	t.Helper()
	engine := New()
	require.NoError(t, engine.Load())

	var buf bytes.Buffer
	require.NoError(t, engine.Render(&buf, name, binding))
	return buf.String()
}

func TestRenderPages(t *testing.T) {
	for _, page := range []string{"landing", "login", "signup", "dashboard", "tickets", "404", "error"} {
		t.Run(page, func(t *testing.T) {
			out := render(t, page, fiber.Map{"stats": domain.TicketStats{}})
			require.Contains(t, out, "<!DOCTYPE html>")
			require.Contains(t, out, `href="/login"`)
		})
	}
}

func TestRenderLoggedInLayout(t *testing.T) {
	out := render(t, "dashboard", fiber.Map{
		"isLoggedIn": true,
		"userName":   "Al <admin>",
		"stats":      domain.TicketStats{Total: 2, Open: 1, Resolved: 1},
		"flash":      &domain.Flash{Type: domain.FlashSuccess, Message: "Welcome!"},
	})

	require.Contains(t, out, "Hi, Al &lt;admin&gt;")
	require.Contains(t, out, `<div class="flash flash-success" role="alert">Welcome!</div>`)
	require.Contains(t, out, `<h2 id="stat-total">2</h2>`)
	require.Contains(t, out, `<h2 id="stat-resolved">1</h2>`)
	require.NotContains(t, out, `href="/signup"`)
}

func TestRenderTicketsWithModal(t *testing.T) {
	out := render(t, "tickets", fiber.Map{
		"tickets": []domain.Ticket{
			{ID: "17", Title: "Printer jam", Status: domain.TicketStatusInProgress, Priority: "high"},
		},
		"stats":         domain.TicketStats{Total: 1},
		"showModal":     true,
		"editingTicket": &domain.Ticket{ID: "17"},
		"form":          map[string]string{"title": "Printer jam", "status": "in_progress", "priority": "high"},
		"errors":        map[string]string{"title": "Title is required."},
		"statuses":      domain.TicketStatuses(),
		"priorities":    []string{"low", "medium", "high"},
		"csrf":          "tok",
	})

	require.Contains(t, out, "In Progress")
	require.Contains(t, out, "#f59e0b")
	require.Contains(t, out, `action="/tickets/update"`)
	require.Contains(t, out, `<option value="in_progress" selected>`)
	require.Contains(t, out, `<option value="high" selected>`)
	require.Contains(t, out, `<p class="field-error">Title is required.</p>`)
	require.Contains(t, out, `name="_csrf" value="tok"`)
}

func TestRenderUnknownTemplate(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, New().Render(&buf, "missing", nil))
}

func TestStatusHelpers(t *testing.T) {
	require.Equal(t, "#10b981", StatusColor(domain.TicketStatusOpen))
	require.Equal(t, "#6b7280", StatusColor("weird"))
	require.Equal(t, "Closed", StatusLabel("closed"))
	require.Equal(t, "weird", StatusLabel("weird"))
}
