package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tamshai/hr-gateway/internal/backend"
	"github.com/tamshai/hr-gateway/internal/envelope"
	"github.com/tamshai/hr-gateway/internal/model"
)

// Write tools never mutate on first call: they validate preconditions, stage
// the action in the confirmation store, and return pending_confirmation. The
// mutation happens only in Execute after a successful consume.

func (r *Registry) stage(ctx context.Context, action, target string, caller model.CallerIdentity, payload any) envelope.Response {
	cctx, cancel := r.withDeadline(ctx)
	defer cancel()

	id, summary, err := r.deps.Confirm.Stage(cctx, action, target, caller.ID, payload)
	if err != nil {
		return envelope.DatabaseErr(r.deps.Log, "confirm.stage", err)
	}
	r.deps.Log.Info().Str("action", action).Str("confirmationId", id).Str("caller", caller.ID).Msg("write action staged")
	return envelope.PendingConfirmation(id, summary, payload)
}

// fetch loads the target record for precondition checks, translating
// not-found into the entity-specific error code.
func (r *Registry) fetch(ctx context.Context, adapter backend.Adapter, caller model.CallerIdentity, key string, notFound envelope.Code, entity string) (backend.Record, *envelope.Response) {
	cctx, cancel := r.withDeadline(backend.WithCaller(ctx, caller))
	defer cancel()

	rec, err := adapter.GetByKey(cctx, key)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			resp := envelope.Err(notFound,
				fmt.Sprintf("No %s with id %q is visible to you.", entity, key),
				"Check the id, or search first to discover visible records.")
			return nil, &resp
		}
		resp := envelope.DatabaseErr(r.deps.Log, adapter.Name()+".get", err)
		return nil, &resp
	}
	return rec, nil
}

func (r *Registry) stageUpdateSalary(ctx context.Context, input json.RawMessage, caller model.CallerIdentity) envelope.Response {
	var p UpdateSalaryPayload
	if err := json.Unmarshal(input, &p); err != nil || p.EmployeeID == "" {
		return envelope.Err(envelope.CodeInvalidInput,
			"update_salary needs {employeeId, newSalary}.",
			"Provide the employee id and the new salary amount.")
	}
	if p.NewSalary <= 0 {
		return envelope.Err(envelope.CodeInvalidInput,
			"newSalary must be a positive amount.",
			"Provide a salary greater than zero.")
	}
	if _, resp := r.fetch(ctx, r.deps.Employees, caller, p.EmployeeID, envelope.CodeEmployeeNotFound, "employee"); resp != nil {
		return *resp
	}
	return r.stage(ctx, ActionUpdateSalary, serviceHRDatabase, caller, p)
}

func (r *Registry) stageTerminateEmployee(ctx context.Context, input json.RawMessage, caller model.CallerIdentity) envelope.Response {
	var p TerminateEmployeePayload
	if err := json.Unmarshal(input, &p); err != nil || p.EmployeeID == "" {
		return envelope.Err(envelope.CodeInvalidInput,
			"terminate_employee needs {employeeId} and optional {effectiveDate, reason}.",
			"Provide the employee id.")
	}
	rec, resp := r.fetch(ctx, r.deps.Employees, caller, p.EmployeeID, envelope.CodeEmployeeNotFound, "employee")
	if resp != nil {
		return *resp
	}
	if status, _ := rec["status"].(string); status == "terminated" {
		return envelope.Err(envelope.CodeConstraintViolation,
			fmt.Sprintf("Employee %q is already terminated.", p.EmployeeID),
			"No further action is needed for this employee.")
	}
	return r.stage(ctx, ActionTerminateEmployee, serviceHRDatabase, caller, p)
}

func (r *Registry) stageApproveTimeOff(ctx context.Context, input json.RawMessage, caller model.CallerIdentity) envelope.Response {
	var p ApproveTimeOffPayload
	if err := json.Unmarshal(input, &p); err != nil || p.RequestID == "" {
		return envelope.Err(envelope.CodeInvalidInput,
			"approve_timeoff needs {requestId}.",
			"Provide the time-off request id.")
	}
	rec, resp := r.fetch(ctx, r.deps.TimeOff, caller, p.RequestID, envelope.CodeRequestNotFound, "time-off request")
	if resp != nil {
		return *resp
	}
	if status, _ := rec["status"].(string); status != "pending" {
		return envelope.Err(envelope.CodeAlreadyProcessed,
			fmt.Sprintf("Request %q is %s, not pending.", p.RequestID, rec["status"]),
			"Only pending requests can be approved.")
	}
	return r.stage(ctx, ActionApproveTimeOff, serviceTimeOff, caller, p)
}

func (r *Registry) stageDenyTimeOff(ctx context.Context, input json.RawMessage, caller model.CallerIdentity) envelope.Response {
	var p DenyTimeOffPayload
	if err := json.Unmarshal(input, &p); err != nil || p.RequestID == "" {
		return envelope.Err(envelope.CodeInvalidInput,
			"deny_timeoff needs {requestId} and optional {reason}.",
			"Provide the time-off request id.")
	}
	rec, resp := r.fetch(ctx, r.deps.TimeOff, caller, p.RequestID, envelope.CodeRequestNotFound, "time-off request")
	if resp != nil {
		return *resp
	}
	if status, _ := rec["status"].(string); status != "pending" {
		return envelope.Err(envelope.CodeAlreadyProcessed,
			fmt.Sprintf("Request %q is %s, not pending.", p.RequestID, rec["status"]),
			"Only pending requests can be denied.")
	}
	return r.stage(ctx, ActionDenyTimeOff, serviceTimeOff, caller, p)
}

func (r *Registry) stageCloseTicket(ctx context.Context, input json.RawMessage, caller model.CallerIdentity) envelope.Response {
	var p CloseTicketPayload
	if err := json.Unmarshal(input, &p); err != nil || p.TicketID == "" {
		return envelope.Err(envelope.CodeInvalidInput,
			"close_ticket needs {ticketId} and optional {resolution}.",
			"Provide the ticket id.")
	}
	rec, resp := r.fetch(ctx, r.deps.Tickets, caller, p.TicketID, envelope.CodeTicketNotFound, "support ticket")
	if resp != nil {
		return *resp
	}
	if status, _ := rec["status"].(string); status == "closed" {
		return envelope.Err(envelope.CodeAlreadyProcessed,
			fmt.Sprintf("Ticket %q is already closed.", p.TicketID),
			"No further action is needed for this ticket.")
	}
	return r.stage(ctx, ActionCloseTicket, serviceTicketIndex, caller, p)
}

func (r *Registry) stageReassignTicket(ctx context.Context, input json.RawMessage, caller model.CallerIdentity) envelope.Response {
	var p ReassignTicketPayload
	if err := json.Unmarshal(input, &p); err != nil || p.TicketID == "" || p.NewAssignee == "" {
		return envelope.Err(envelope.CodeInvalidInput,
			"reassign_ticket needs {ticketId, newAssignee}.",
			"Provide the ticket id and the new assignee's name.")
	}
	if _, resp := r.fetch(ctx, r.deps.Tickets, caller, p.TicketID, envelope.CodeTicketNotFound, "support ticket"); resp != nil {
		return *resp
	}
	return r.stage(ctx, ActionReassignTicket, serviceTicketIndex, caller, p)
}
