package tools

import (
	"encoding/json"
	"fmt"
)

// Action names accepted by the write tools and the execute dispatcher.
const (
	ActionUpdateSalary      = "update_salary"
	ActionTerminateEmployee = "terminate_employee"
	ActionApproveTimeOff    = "approve_timeoff"
	ActionDenyTimeOff       = "deny_timeoff"
	ActionCloseTicket       = "close_ticket"
	ActionReassignTicket    = "reassign_ticket"
)

// knownActions is the set of actions the execute dispatcher can run.
var knownActions = map[string]bool{
	ActionUpdateSalary:      true,
	ActionTerminateEmployee: true,
	ActionApproveTimeOff:    true,
	ActionDenyTimeOff:       true,
	ActionCloseTicket:       true,
	ActionReassignTicket:    true,
}

// Target services recorded on staged actions.
const (
	serviceHRDatabase  = "hr-database"
	serviceTimeOff     = "timeoff-store"
	serviceTicketIndex = "ticket-index"
)

// One concrete payload struct per action: the confirmation store persists the
// serialized form, and the execute dispatcher deserializes into the matching
// struct. What the caller approved is exactly what executes.

type UpdateSalaryPayload struct {
	EmployeeID string  `json:"employeeId"`
	NewSalary  float64 `json:"newSalary"`
}

type TerminateEmployeePayload struct {
	EmployeeID    string `json:"employeeId"`
	EffectiveDate string `json:"effectiveDate,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

type ApproveTimeOffPayload struct {
	RequestID string `json:"requestId"`
}

type DenyTimeOffPayload struct {
	RequestID string `json:"requestId"`
	Reason    string `json:"reason,omitempty"`
}

type CloseTicketPayload struct {
	TicketID   string `json:"ticketId"`
	Resolution string `json:"resolution,omitempty"`
}

type ReassignTicketPayload struct {
	TicketID    string `json:"ticketId"`
	NewAssignee string `json:"newAssignee"`
}

// decodePayload maps a staged action back to its concrete payload struct.
func decodePayload(action string, raw json.RawMessage) (any, error) {
	var (
		out any
		err error
	)
	switch action {
	case ActionUpdateSalary:
		p := UpdateSalaryPayload{}
		err = json.Unmarshal(raw, &p)
		out = p
	case ActionTerminateEmployee:
		p := TerminateEmployeePayload{}
		err = json.Unmarshal(raw, &p)
		out = p
	case ActionApproveTimeOff:
		p := ApproveTimeOffPayload{}
		err = json.Unmarshal(raw, &p)
		out = p
	case ActionDenyTimeOff:
		p := DenyTimeOffPayload{}
		err = json.Unmarshal(raw, &p)
		out = p
	case ActionCloseTicket:
		p := CloseTicketPayload{}
		err = json.Unmarshal(raw, &p)
		out = p
	case ActionReassignTicket:
		p := ReassignTicketPayload{}
		err = json.Unmarshal(raw, &p)
		out = p
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", action, err)
	}
	return out, nil
}
