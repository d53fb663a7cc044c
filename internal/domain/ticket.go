package domain

// TicketStatus enumerates lifecycle states for tickets. Any state may follow any other.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// DefaultPriority applies when a form leaves priority empty.
const DefaultPriority = "medium"

// TicketPriorities lists the priorities offered by the ticket form. Stored
// priorities are free-form.
func TicketPriorities() []string {
	return []string{"low", DefaultPriority, "high"}
}

// MaxDescriptionLength bounds Ticket.Description in characters.
const MaxDescriptionLength = 500

// TicketStatuses lists valid statuses in display order.
func TicketStatuses() []TicketStatus {
	return []TicketStatus{TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed}
}

// Valid reports whether s is one of the known statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

// Ticket is a support request owned by a single user. Timestamps are RFC 3339.
type Ticket struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TicketStatus `json:"status"`
	Priority    string       `json:"priority"`
	CreatedAt   string       `json:"createdAt"`
	UpdatedAt   string       `json:"updatedAt"`
}

// TicketStats summarizes a user's tickets.
type TicketStats struct {
	Total    int `json:"total"`
	Open     int `json:"open"`
	Resolved int `json:"resolved"`
}
