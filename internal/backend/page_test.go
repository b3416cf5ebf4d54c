package backend

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRows(n int) []Record {
	rows := make([]Record, n)
	for i := range rows {
		rows[i] = Record{"id": "r" + strconv.Itoa(i)}
	}
	return rows
}

func encodeID(r Record) string { return r["id"].(string) }

func TestFinishPageTruncated(t *testing.T) {
	// limit+1 rows fetched: page is trimmed and a cursor points at the last kept row
	res := FinishPage(makeRows(6), 5, encodeID)
	require.Len(t, res.Items, 5)
	assert.True(t, res.HasMore)
	assert.Equal(t, "r4", res.NextCursor)
	assert.Equal(t, "5+", res.TotalEstimate)
}

func TestFinishPageExactLimit(t *testing.T) {
	// exactly limit rows means the result set ended here
	res := FinishPage(makeRows(5), 5, encodeID)
	require.Len(t, res.Items, 5)
	assert.False(t, res.HasMore)
	assert.Empty(t, res.NextCursor)
	assert.Equal(t, "5", res.TotalEstimate)
}

func TestFinishPageShortAndEmpty(t *testing.T) {
	res := FinishPage(makeRows(2), 5, encodeID)
	assert.Len(t, res.Items, 2)
	assert.False(t, res.HasMore)
	assert.Equal(t, "2", res.TotalEstimate)

	res = FinishPage(nil, 5, encodeID)
	require.NotNil(t, res.Items, "empty page must marshal as [], not null")
	assert.Empty(t, res.Items)
	assert.False(t, res.HasMore)
	assert.Equal(t, "0", res.TotalEstimate)
}
