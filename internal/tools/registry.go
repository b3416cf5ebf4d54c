// Package tools implements the per-entity tool handlers consumed by the HTTP
// and MCP surfaces. Read tools page through backends; write tools stage a
// pending action and return pending_confirmation; the execute dispatcher
// consumes staged actions and performs the mutation.
package tools

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamshai/hr-gateway/internal/backend"
	"github.com/tamshai/hr-gateway/internal/confirm"
	"github.com/tamshai/hr-gateway/internal/envelope"
	"github.com/tamshai/hr-gateway/internal/model"
)

// Handler is a single tool implementation. Input is the tool-specific JSON
// body; the returned envelope is always one of the three shapes.
type Handler func(ctx context.Context, input json.RawMessage, caller model.CallerIdentity) envelope.Response

// Deps carries the explicitly constructed collaborators. No package-level
// singletons; lifecycle belongs to the process entry point.
type Deps struct {
	Employees backend.Adapter
	TimeOff   backend.Adapter
	Tickets   backend.Adapter
	Confirm   confirm.Store
	Log       zerolog.Logger

	// Timeout bounds each backend call when the inbound context has no
	// earlier deadline.
	Timeout time.Duration
}

// Registry maps tool names to handlers. Both the HTTP router and the MCP
// server dispatch through it.
type Registry struct {
	deps     Deps
	handlers map[string]Handler
}

// NewRegistry wires up every tool.
func NewRegistry(deps Deps) *Registry {
	if deps.Timeout <= 0 {
		deps.Timeout = 10 * time.Second
	}
	r := &Registry{deps: deps, handlers: map[string]Handler{}}

	r.handlers["search_employees"] = r.searchTool(deps.Employees)
	r.handlers["get_employee"] = r.getTool(deps.Employees, "employeeId", envelope.CodeEmployeeNotFound, "employee")
	r.handlers["search_timeoff"] = r.searchTool(deps.TimeOff)
	r.handlers["search_tickets"] = r.searchTool(deps.Tickets)
	r.handlers["get_ticket"] = r.getTool(deps.Tickets, "ticketId", envelope.CodeTicketNotFound, "support ticket")

	r.handlers[ActionUpdateSalary] = r.stageUpdateSalary
	r.handlers[ActionTerminateEmployee] = r.stageTerminateEmployee
	r.handlers[ActionApproveTimeOff] = r.stageApproveTimeOff
	r.handlers[ActionDenyTimeOff] = r.stageDenyTimeOff
	r.handlers[ActionCloseTicket] = r.stageCloseTicket
	r.handlers[ActionReassignTicket] = r.stageReassignTicket

	return r
}

// Names lists registered tools in stable order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dispatch runs the named tool inside the envelope boundary: unknown tools,
// panics, and stray errors all come back as error envelopes.
func (r *Registry) Dispatch(ctx context.Context, tool string, input json.RawMessage, caller model.CallerIdentity) envelope.Response {
	h, ok := r.handlers[tool]
	if !ok {
		return envelope.Err(envelope.CodeUnknownTool,
			"No tool named "+tool+" is registered.",
			"Call one of the registered tools; list them via the tool index.")
	}
	return envelope.Capture(r.deps.Log, tool, func() envelope.Response {
		return h(ctx, input, caller)
	})
}

// withDeadline applies the default backend timeout unless the caller already
// set an earlier one.
func (r *Registry) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.deps.Timeout)
}
