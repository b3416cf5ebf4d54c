package model

import (
	"encoding/json"
	"time"
)

// CallerIdentity describes the authenticated caller of a tool. It is supplied
// by the surrounding service per request and never mutated afterwards.
type CallerIdentity struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Email       string   `json:"email,omitempty"`
	Roles       []string `json:"roles"`
}

// HasRole reports whether the caller holds the given role.
func (c CallerIdentity) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the caller holds at least one of the given roles.
func (c CallerIdentity) HasAnyRole(roles []string) bool {
	for _, r := range roles {
		if c.HasRole(r) {
			return true
		}
	}
	return false
}

// Employee is a row in the relational engine. Visibility is enforced by the
// database's row-level security, not by application code.
type Employee struct {
	EmployeeID string  `json:"employeeId"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Email      string  `json:"email"`
	Department string  `json:"department"`
	Title      string  `json:"title"`
	ManagerID  *string `json:"managerId,omitempty"`
	Salary     float64 `json:"salary"`
	Status     string  `json:"status"`
}

// TimeOffRequest is a JSON document in the document engine.
type TimeOffRequest struct {
	RequestID    string    `json:"requestId"`
	EmployeeName string    `json:"employeeName"`
	Approver     string    `json:"approver"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	StartDate    string    `json:"startDate"`
	EndDate      string    `json:"endDate"`
	Reason       string    `json:"reason,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SupportTicket lives in the search index.
type SupportTicket struct {
	TicketID    string    `json:"ticketId"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	Requester   string    `json:"requester"`
	Assignee    string    `json:"assignee"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PageRequest is the uniform read request every backend adapter accepts.
// Limit is normalized before an adapter ever sees it.
type PageRequest struct {
	Query   string            `json:"query,omitempty"`
	Filters map[string]string `json:"filters,omitempty"`
	Limit   int               `json:"limit"`
	Cursor  string            `json:"cursor,omitempty"`
	Caller  CallerIdentity    `json:"-"`
}

// PageResult is the uniform read result. NextCursor is set iff HasMore.
type PageResult[T any] struct {
	Items         []T    `json:"items"`
	HasMore       bool   `json:"hasMore"`
	NextCursor    string `json:"nextCursor,omitempty"`
	TotalEstimate string `json:"totalEstimate,omitempty"`
}

// PendingAction is a staged write awaiting confirmation. Write-once,
// consume-once; the payload captured here is what executes, not a re-read of
// current state.
type PendingAction struct {
	ConfirmationID string          `json:"confirmationId"`
	Action         string          `json:"action"`
	TargetService  string          `json:"targetService"`
	CallerID       string          `json:"callerId"`
	CreatedAt      time.Time       `json:"createdAt"`
	Payload        json.RawMessage `json:"payload"`
}

const (
	// MaxPageLimit bounds how many records a single page may carry.
	MaxPageLimit = 100
	// DefaultPageLimit applies when a request leaves limit unset.
	DefaultPageLimit = 20
)

// NormalizeLimit clamps a requested page size into [1, MaxPageLimit],
// substituting DefaultPageLimit for an unset value.
func NormalizeLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultPageLimit
	case n > MaxPageLimit:
		return MaxPageLimit
	default:
		return n
	}
}
