package searchidx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	wmodels "github.com/weaviate/weaviate/entities/models"

	"github.com/tamshai/hr-gateway/internal/model"
	"github.com/tamshai/hr-gateway/internal/rolefilter"
)

var testRoles = rolefilter.Config{
	FullAccessRoles: []string{"hr-admin"},
	TeamRoles:       []string{"manager"},
}

func testAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := New("localhost:8080", testRoles)
	require.NoError(t, err)
	return a
}

func TestVisibilityOperands(t *testing.T) {
	a := testAdapter(t)

	ops := a.visibilityOperands(model.CallerIdentity{ID: "u", DisplayName: "Boss", Roles: []string{"hr-admin"}})
	assert.Nil(t, ops, "full access adds no where operands")

	ops = a.visibilityOperands(model.CallerIdentity{ID: "u", DisplayName: "Lead", Roles: []string{"manager"}})
	require.Len(t, ops, 1, "team role collapses to one requester-or-assignee operand")

	ops = a.visibilityOperands(model.CallerIdentity{ID: "u", DisplayName: "Plain"})
	require.Len(t, ops, 1, "default is requester-only")
}

// Query text must become a where operand: Weaviate rejects ranked search
// operators combined with an explicit sort, and the fixed sort is what keeps
// cursor continuation valid.
func TestTextMatchOperand(t *testing.T) {
	rendered := textMatchOperand("vpn").String()
	assert.Contains(t, rendered, "Or")
	assert.Contains(t, rendered, "Like")
	assert.Contains(t, rendered, "subject")
	assert.Contains(t, rendered, "description")
	assert.Contains(t, rendered, "*vpn*")
	assert.NotContains(t, rendered, "bm25")
}

func TestExtractRecords(t *testing.T) {
	data := map[string]wmodels.JSONObject{
		"Get": map[string]interface{}{
			className: []interface{}{
				map[string]interface{}{
					"ticketId":    "T1",
					"subject":     "VPN down",
					"_additional": map[string]interface{}{"id": "uuid-1"},
				},
				map[string]interface{}{
					"ticketId": "T2",
					"subject":  "Badge lost",
				},
			},
		},
	}

	recs := extractRecords(data)
	require.Len(t, recs, 2)
	assert.Equal(t, "T1", recs[0]["ticketId"])
	assert.NotContains(t, recs[0], "_additional", "internal fields stay out of tool output")

	raw := rawObjects(data)
	require.Len(t, raw, 2)
	assert.Contains(t, raw[0], "_additional")
}

func TestExtractRecordsMalformedShapes(t *testing.T) {
	assert.Nil(t, extractRecords(nil))
	assert.Nil(t, extractRecords(map[string]wmodels.JSONObject{"Get": "not a map"}))
	assert.Nil(t, extractRecords(map[string]wmodels.JSONObject{
		"Get": map[string]interface{}{className: "not a list"},
	}))
	assert.Nil(t, extractRecords(map[string]wmodels.JSONObject{
		"Get": map[string]interface{}{"OtherClass": []interface{}{}},
	}))
}

func TestFormatGraphQLErrors(t *testing.T) {
	out := formatGraphQLErrors([]map[string]any{{"message": "no such class"}})
	assert.Contains(t, out, "no such class")
}
