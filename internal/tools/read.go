package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tamshai/hr-gateway/internal/backend"
	"github.com/tamshai/hr-gateway/internal/envelope"
	"github.com/tamshai/hr-gateway/internal/model"
)

// searchInput is the uniform body of every search tool.
type searchInput struct {
	Query   string            `json:"query,omitempty"`
	Filters map[string]string `json:"filters,omitempty"`
	Limit   int               `json:"limit,omitempty"`
	Cursor  string            `json:"cursor,omitempty"`
}

// searchTool builds the read handler for one backend. Limit is clamped here;
// adapters never see an out-of-range value. A cursor that fails to decode is
// handled inside the adapter as "first page", never as an error.
func (r *Registry) searchTool(adapter backend.Adapter) Handler {
	return func(ctx context.Context, input json.RawMessage, caller model.CallerIdentity) envelope.Response {
		var in searchInput
		if len(input) > 0 {
			if err := json.Unmarshal(input, &in); err != nil {
				return envelope.Err(envelope.CodeInvalidInput,
					"The tool input is not valid JSON for a search request.",
					"Send {query?, filters?, limit?, cursor?} as a JSON object.")
			}
		}

		req := model.PageRequest{
			Query:   in.Query,
			Filters: in.Filters,
			Limit:   model.NormalizeLimit(in.Limit),
			Cursor:  in.Cursor,
			Caller:  caller,
		}

		cctx, cancel := r.withDeadline(ctx)
		defer cancel()

		res, err := adapter.Search(cctx, req)
		if err != nil {
			return envelope.DatabaseErr(r.deps.Log, adapter.Name()+".search", err)
		}
		return envelope.OKPage(res)
	}
}

// getTool builds a single-record fetch handler. keyField names the JSON
// input field holding the key; notFound is the entity-specific error code.
func (r *Registry) getTool(adapter backend.Adapter, keyField string, notFound envelope.Code, entity string) Handler {
	return func(ctx context.Context, input json.RawMessage, caller model.CallerIdentity) envelope.Response {
		key, resp := requireStringField(input, keyField)
		if resp != nil {
			return *resp
		}

		cctx, cancel := r.withDeadline(backend.WithCaller(ctx, caller))
		defer cancel()

		rec, err := adapter.GetByKey(cctx, key)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return envelope.Err(notFound,
					fmt.Sprintf("No %s with id %q is visible to you.", entity, key),
					"Check the id, or search first to discover visible records.")
			}
			return envelope.DatabaseErr(r.deps.Log, adapter.Name()+".get", err)
		}
		return envelope.OK(rec)
	}
}

// requireStringField extracts a mandatory non-empty string field from the
// tool input, or returns the INVALID_INPUT envelope to reply with.
func requireStringField(input json.RawMessage, field string) (string, *envelope.Response) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(input, &m); err != nil {
		resp := envelope.Err(envelope.CodeInvalidInput,
			"The tool input is not a JSON object.",
			fmt.Sprintf("Send a JSON object with a %q field.", field))
		return "", &resp
	}
	var v string
	if raw, ok := m[field]; ok {
		_ = json.Unmarshal(raw, &v)
	}
	if strings.TrimSpace(v) == "" {
		resp := envelope.Err(envelope.CodeInvalidInput,
			fmt.Sprintf("The required field %q is missing or empty.", field),
			fmt.Sprintf("Provide a non-empty %q.", field))
		return "", &resp
	}
	return v, nil
}
