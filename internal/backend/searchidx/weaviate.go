// Package searchidx implements the search-index backend adapter for support
// tickets, backed by Weaviate. Weaviate has no row-level security, so the
// role filter clause becomes where-operands on every query.
package searchidx

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	gql "github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	wmodels "github.com/weaviate/weaviate/entities/models"

	"github.com/tamshai/hr-gateway/internal/backend"
	"github.com/tamshai/hr-gateway/internal/cursor"
	"github.com/tamshai/hr-gateway/internal/model"
	"github.com/tamshai/hr-gateway/internal/rolefilter"
)

const className = "SupportTicket"

// Adapter is the search-index implementation of backend.Adapter.
type Adapter struct {
	client  *weaviate.Client
	roles   rolefilter.Config
	baseURL string // host:port without scheme
}

// New constructs an Adapter talking to Weaviate at baseURL (host:port,
// without scheme).
func New(baseURL string, roles rolefilter.Config) (*Adapter, error) {
	cfg := weaviate.Config{Scheme: "http", Host: baseURL}
	cl, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Adapter{client: cl, roles: roles, baseURL: baseURL}, nil
}

func (a *Adapter) Name() string { return "searchidx" }

// CheckHealth uses the readiness endpoint.
func (a *Adapter) CheckHealth(ctx context.Context) bool {
	ok, err := a.client.Misc().ReadyChecker().Do(ctx)
	return err == nil && ok
}

// filterProps is the allowlist of structured filters mapped to properties.
var filterProps = map[string]string{
	"status":    "status",
	"priority":  "priority",
	"requester": "requester",
	"assignee":  "assignee",
}

func (a *Adapter) visibilityOperands(caller model.CallerIdentity) []*filters.WhereBuilder {
	clause := rolefilter.Build(caller, a.roles)
	switch {
	case clause.Unrestricted:
		return nil
	case clause.OwnerOrAssignee:
		return []*filters.WhereBuilder{
			filters.Where().WithOperator(filters.Or).WithOperands([]*filters.WhereBuilder{
				filters.Where().WithPath([]string{"requester"}).WithOperator(filters.Equal).WithValueText(clause.Caller),
				filters.Where().WithPath([]string{"assignee"}).WithOperator(filters.Equal).WithValueText(clause.Caller),
			}),
		}
	default:
		return []*filters.WhereBuilder{
			filters.Where().WithPath([]string{"requester"}).WithOperator(filters.Equal).WithValueText(clause.Caller),
		}
	}
}

// textMatchOperand expresses free-text matching as a Like filter over the
// ticket text fields. Weaviate refuses ranked search operators combined with
// an explicit sort, and keyset continuation needs the fixed (createdAt,
// ticketId) order, so the query text becomes a filter rather than a ranking.
func textMatchOperand(query string) *filters.WhereBuilder {
	pattern := "*" + query + "*"
	return filters.Where().WithOperator(filters.Or).WithOperands([]*filters.WhereBuilder{
		filters.Where().WithPath([]string{"subject"}).WithOperator(filters.Like).WithValueText(pattern),
		filters.Where().WithPath([]string{"description"}).WithOperator(filters.Like).WithValueText(pattern),
	})
}

// Search pages through tickets in reverse chronological order keyed on
// (createdAt, ticketId). The sort stays fixed so keyset continuation remains
// well-defined across pages.
func (a *Adapter) Search(ctx context.Context, req model.PageRequest) (model.PageResult[backend.Record], error) {
	log.Debug().Str("query", req.Query).Int("limit", req.Limit).Bool("cursor", req.Cursor != "").Msg("ticket search starting")

	operands := a.visibilityOperands(req.Caller)
	if q := strings.TrimSpace(req.Query); q != "" {
		operands = append(operands, textMatchOperand(q))
	}

	for k, v := range req.Filters {
		prop, ok := filterProps[k]
		if !ok {
			continue
		}
		operands = append(operands,
			filters.Where().WithPath([]string{prop}).WithOperator(filters.Equal).WithValueText(v))
	}

	if last := cursor.DecodeStrings(req.Cursor, 2); last != nil {
		if ts, err := time.Parse(time.RFC3339Nano, last[0]); err == nil {
			// strictly after the decoded tuple in descending order
			operands = append(operands,
				filters.Where().WithOperator(filters.Or).WithOperands([]*filters.WhereBuilder{
					filters.Where().WithPath([]string{"createdAt"}).WithOperator(filters.LessThan).WithValueDate(ts),
					filters.Where().WithOperator(filters.And).WithOperands([]*filters.WhereBuilder{
						filters.Where().WithPath([]string{"createdAt"}).WithOperator(filters.Equal).WithValueDate(ts),
						filters.Where().WithPath([]string{"ticketId"}).WithOperator(filters.LessThan).WithValueText(last[1]),
					}),
				}))
		}
	}

	q := a.client.GraphQL().Get().
		WithClassName(className).
		WithLimit(req.Limit+1).
		WithSort(
			gql.Sort{Path: []string{"createdAt"}, Order: gql.Desc},
			gql.Sort{Path: []string{"ticketId"}, Order: gql.Desc},
		).
		WithFields(
			gql.Field{Name: "ticketId"},
			gql.Field{Name: "subject"},
			gql.Field{Name: "description"},
			gql.Field{Name: "requester"},
			gql.Field{Name: "assignee"},
			gql.Field{Name: "status"},
			gql.Field{Name: "priority"},
			gql.Field{Name: "createdAt"},
		)

	if len(operands) == 1 {
		q = q.WithWhere(operands[0])
	} else if len(operands) > 1 {
		q = q.WithWhere(filters.Where().WithOperator(filters.And).WithOperands(operands))
	}

	resp, err := q.Do(ctx)
	if err != nil {
		return model.PageResult[backend.Record]{}, err
	}
	if len(resp.Errors) > 0 {
		return model.PageResult[backend.Record]{}, fmt.Errorf("weaviate graphql: %s", formatGraphQLErrors(resp.Errors))
	}

	rows := extractRecords(resp.Data)
	return backend.FinishPage(rows, req.Limit, func(r backend.Record) string {
		created, _ := r["createdAt"].(string)
		id, _ := r["ticketId"].(string)
		return cursor.Encode(created, id)
	}), nil
}

// GetByKey fetches one ticket by ticketId under the caller's visibility
// clause.
func (a *Adapter) GetByKey(ctx context.Context, key string) (backend.Record, error) {
	operands := append(a.visibilityOperands(backend.CallerFrom(ctx)),
		filters.Where().WithPath([]string{"ticketId"}).WithOperator(filters.Equal).WithValueText(key))

	where := operands[0]
	if len(operands) > 1 {
		where = filters.Where().WithOperator(filters.And).WithOperands(operands)
	}

	resp, err := a.client.GraphQL().Get().
		WithClassName(className).
		WithWhere(where).
		WithLimit(1).
		WithFields(
			gql.Field{Name: "ticketId"},
			gql.Field{Name: "subject"},
			gql.Field{Name: "description"},
			gql.Field{Name: "requester"},
			gql.Field{Name: "assignee"},
			gql.Field{Name: "status"},
			gql.Field{Name: "priority"},
			gql.Field{Name: "createdAt"},
		).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate graphql: %s", formatGraphQLErrors(resp.Errors))
	}
	rows := extractRecords(resp.Data)
	if len(rows) == 0 {
		return nil, model.ErrNotFound
	}
	return rows[0], nil
}

// updateProps is the allowlist of mutable ticket properties.
var updateProps = map[string]bool{
	"status":   true,
	"assignee": true,
	"priority": true,
}

// Update merges allowlisted properties into the ticket object. Returns false
// when no object carries the ticketId.
func (a *Adapter) Update(ctx context.Context, key string, fields map[string]any) (bool, error) {
	props := map[string]any{}
	for k, v := range fields {
		if !updateProps[k] {
			return false, fmt.Errorf("%w: field %q is not updatable", model.ErrValidation, k)
		}
		props[k] = v
	}
	if len(props) == 0 {
		return false, fmt.Errorf("%w: no fields to update", model.ErrValidation)
	}

	id, err := a.objectID(ctx, key)
	if err != nil {
		if err == model.ErrNotFound {
			return false, nil
		}
		return false, err
	}

	err = a.client.Data().Updater().
		WithClassName(className).
		WithID(id).
		WithProperties(props).
		WithMerge().
		Do(ctx)
	if err != nil {
		return false, err
	}
	return true, nil
}

// objectID resolves the Weaviate object UUID behind a ticketId.
func (a *Adapter) objectID(ctx context.Context, ticketID string) (string, error) {
	resp, err := a.client.GraphQL().Get().
		WithClassName(className).
		WithWhere(filters.Where().WithPath([]string{"ticketId"}).WithOperator(filters.Equal).WithValueText(ticketID)).
		WithLimit(1).
		WithFields(gql.Field{Name: "_additional", Fields: []gql.Field{{Name: "id"}}}).
		Do(ctx)
	if err != nil {
		return "", err
	}
	if len(resp.Errors) > 0 {
		return "", fmt.Errorf("weaviate graphql: %s", formatGraphQLErrors(resp.Errors))
	}
	rows := rawObjects(resp.Data)
	if len(rows) == 0 {
		return "", model.ErrNotFound
	}
	if add, ok := rows[0]["_additional"].(map[string]any); ok {
		if id, ok := add["id"].(string); ok {
			return id, nil
		}
	}
	return "", model.ErrNotFound
}

// Insert stores a new ticket object. Used by seeding and tests.
func (a *Adapter) Insert(ctx context.Context, t model.SupportTicket) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := a.client.Data().Creator().
		WithClassName(className).
		WithProperties(map[string]any{
			"ticketId":    t.TicketID,
			"subject":     t.Subject,
			"description": t.Description,
			"requester":   t.Requester,
			"assignee":    t.Assignee,
			"status":      t.Status,
			"priority":    t.Priority,
			"createdAt":   t.CreatedAt.UTC().Format(time.RFC3339Nano),
		}).
		Do(ctx)
	return err
}

// extractRecords unpacks Get results for className into uniform records.
func extractRecords(data map[string]wmodels.JSONObject) []backend.Record {
	raw := rawObjects(data)
	out := make([]backend.Record, 0, len(raw))
	for _, m := range raw {
		rec := backend.Record{}
		for k, v := range m {
			if k == "_additional" {
				continue
			}
			rec[k] = v
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func rawObjects(data map[string]wmodels.JSONObject) []map[string]any {
	getData, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	items, ok := getData[className].([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

// formatGraphQLErrors returns a compact string with messages extracted for
// logging.
func formatGraphQLErrors(errs interface{}) string {
	if b, err := json.Marshal(errs); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", errs)
}
