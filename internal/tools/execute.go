package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/tamshai/hr-gateway/internal/backend"
	"github.com/tamshai/hr-gateway/internal/envelope"
	"github.com/tamshai/hr-gateway/internal/model"
)

// Execute consumes a staged action and performs the mutation. The consume is
// atomic: of two concurrent executes for one confirmation id, exactly one
// proceeds. Consume-then-mutate is deliberately two steps with no distributed
// transaction: a crash in between loses the action without mutating anything,
// and a re-staged approval is the recovery path.
//
// Field values are applied from the STAGED payload ("approve what you saw");
// existence and terminal-state preconditions are re-validated here because the
// record may have changed since staging.
func (r *Registry) Execute(ctx context.Context, action, confirmationID string, caller model.CallerIdentity) envelope.Response {
	return envelope.Capture(r.deps.Log, "execute_action", func() envelope.Response {
		if action == "" || confirmationID == "" {
			return envelope.Err(envelope.CodeInvalidInput,
				"execute needs {action, confirmationId}.",
				"Provide the action name and the confirmation id returned when the action was staged.")
		}
		// Reject unrecognized actions before touching the store: a typo'd
		// action name must not consume the staged record.
		if !knownActions[action] {
			return envelope.Err(envelope.CodeUnknownAction,
				fmt.Sprintf("No executor is registered for action %q.", action),
				"Call execute with the action name returned when the write was staged.")
		}

		cctx, cancel := r.withDeadline(ctx)
		defer cancel()

		pending, err := r.deps.Confirm.Consume(cctx, confirmationID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return envelope.Err(envelope.CodeConfirmationNotFound,
					fmt.Sprintf("Confirmation %q was not found. It may have expired or already been executed.", confirmationID),
					"Stage the action again to get a fresh confirmation.")
			}
			return envelope.DatabaseErr(r.deps.Log, "confirm.consume", err)
		}
		if pending.Action != action {
			// The record is already consumed; surface the mismatch rather
			// than executing something the caller did not name.
			r.deps.Log.Warn().Str("staged", pending.Action).Str("requested", action).Msg("confirmation action mismatch")
			return envelope.Err(envelope.CodeInvalidInput,
				fmt.Sprintf("Confirmation %q was staged for %s, not %s.", confirmationID, pending.Action, action),
				"Stage the intended action again; this confirmation is spent.")
		}

		payload, err := decodePayload(pending.Action, pending.Payload)
		if err != nil {
			r.deps.Log.Error().Stack().Err(err).Str("action", pending.Action).Msg("staged payload failed to decode")
			return envelope.Err(envelope.CodeUnknownAction,
				fmt.Sprintf("No executor is registered for action %q.", pending.Action),
				"Stage one of the supported write actions.")
		}

		r.deps.Log.Info().Str("action", action).Str("confirmationId", confirmationID).Str("caller", caller.ID).Msg("executing confirmed action")
		ectx := backend.WithCaller(cctx, caller)

		switch p := payload.(type) {
		case UpdateSalaryPayload:
			return r.applyUpdate(ectx, r.deps.Employees, p.EmployeeID,
				map[string]any{"salary": p.NewSalary}, envelope.CodeEmployeeNotFound, "employee",
				map[string]any{"employeeId": p.EmployeeID, "newSalary": p.NewSalary})
		case TerminateEmployeePayload:
			return r.executeTerminate(ectx, p)
		case ApproveTimeOffPayload:
			return r.executeTimeOffDecision(ectx, p.RequestID, "approved", "")
		case DenyTimeOffPayload:
			return r.executeTimeOffDecision(ectx, p.RequestID, "denied", p.Reason)
		case CloseTicketPayload:
			return r.executeCloseTicket(ectx, p)
		case ReassignTicketPayload:
			return r.applyUpdate(ectx, r.deps.Tickets, p.TicketID,
				map[string]any{"assignee": p.NewAssignee}, envelope.CodeTicketNotFound, "support ticket",
				map[string]any{"ticketId": p.TicketID, "assignee": p.NewAssignee})
		default:
			return envelope.Err(envelope.CodeUnknownAction,
				fmt.Sprintf("No executor is registered for action %q.", pending.Action),
				"Stage one of the supported write actions.")
		}
	})
}

// applyUpdate runs a plain field update where the only re-validated
// precondition is that the record still exists.
func (r *Registry) applyUpdate(ctx context.Context, adapter backend.Adapter, key string, fields map[string]any, notFound envelope.Code, entity string, result map[string]any) envelope.Response {
	ok, err := adapter.Update(ctx, key, fields)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			return envelope.Err(envelope.CodeInvalidInput, err.Error(), "Adjust the staged fields and stage again.")
		}
		return envelope.DatabaseErr(r.deps.Log, adapter.Name()+".update", err)
	}
	if !ok {
		return envelope.Err(notFound,
			fmt.Sprintf("The %s %q no longer exists.", entity, key),
			"The record changed since staging; search again and restage if still needed.")
	}
	return envelope.OK(result)
}

// executeTerminate re-checks the terminal state before applying: terminating
// an already-terminated employee would silently double-apply.
func (r *Registry) executeTerminate(ctx context.Context, p TerminateEmployeePayload) envelope.Response {
	rec, err := r.deps.Employees.GetByKey(ctx, p.EmployeeID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return envelope.Err(envelope.CodeEmployeeNotFound,
				fmt.Sprintf("Employee %q no longer exists.", p.EmployeeID),
				"Nothing to terminate.")
		}
		return envelope.DatabaseErr(r.deps.Log, "postgres.get", err)
	}
	if status, _ := rec["status"].(string); status == "terminated" {
		return envelope.Err(envelope.CodeAlreadyProcessed,
			fmt.Sprintf("Employee %q was terminated after this action was staged.", p.EmployeeID),
			"No further action is needed.")
	}
	return r.applyUpdate(ctx, r.deps.Employees, p.EmployeeID,
		map[string]any{"status": "terminated"}, envelope.CodeEmployeeNotFound, "employee",
		map[string]any{"employeeId": p.EmployeeID, "status": "terminated", "effectiveDate": p.EffectiveDate})
}

// executeTimeOffDecision re-checks that the request is still pending; the
// decision value itself comes from the staged action.
func (r *Registry) executeTimeOffDecision(ctx context.Context, requestID, decision, reason string) envelope.Response {
	rec, err := r.deps.TimeOff.GetByKey(ctx, requestID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return envelope.Err(envelope.CodeRequestNotFound,
				fmt.Sprintf("Time-off request %q no longer exists.", requestID),
				"Nothing to decide.")
		}
		return envelope.DatabaseErr(r.deps.Log, "document.get", err)
	}
	if status, _ := rec["status"].(string); status != "pending" {
		return envelope.Err(envelope.CodeAlreadyProcessed,
			fmt.Sprintf("Request %q was decided (%s) after this action was staged.", requestID, status),
			"No further action is needed.")
	}
	fields := map[string]any{"status": decision}
	if reason != "" {
		fields["reason"] = reason
	}
	return r.applyUpdate(ctx, r.deps.TimeOff, requestID, fields, envelope.CodeRequestNotFound, "time-off request",
		map[string]any{"requestId": requestID, "status": decision})
}

func (r *Registry) executeCloseTicket(ctx context.Context, p CloseTicketPayload) envelope.Response {
	rec, err := r.deps.Tickets.GetByKey(ctx, p.TicketID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return envelope.Err(envelope.CodeTicketNotFound,
				fmt.Sprintf("Ticket %q no longer exists.", p.TicketID),
				"Nothing to close.")
		}
		return envelope.DatabaseErr(r.deps.Log, "searchidx.get", err)
	}
	if status, _ := rec["status"].(string); status == "closed" {
		return envelope.Err(envelope.CodeAlreadyProcessed,
			fmt.Sprintf("Ticket %q was closed after this action was staged.", p.TicketID),
			"No further action is needed.")
	}
	return r.applyUpdate(ctx, r.deps.Tickets, p.TicketID,
		map[string]any{"status": "closed"}, envelope.CodeTicketNotFound, "support ticket",
		map[string]any{"ticketId": p.TicketID, "status": "closed", "resolution": p.Resolution})
}
