package backend

import (
	"strconv"

	"github.com/tamshai/hr-gateway/internal/model"
)

// FinishPage performs the limit+1 truncation shared by all adapters: rows is
// the raw fetch of up to limit+1 records; encodeLast produces the
// continuation token from the last KEPT record. TotalEstimate is display-only
// ("<limit>+" when truncated, exact count otherwise).
func FinishPage(rows []Record, limit int, encodeLast func(Record) string) model.PageResult[Record] {
	res := model.PageResult[Record]{Items: rows}
	if len(rows) > limit {
		res.Items = rows[:limit]
		res.HasMore = true
		res.NextCursor = encodeLast(res.Items[limit-1])
		res.TotalEstimate = strconv.Itoa(limit) + "+"
		return res
	}
	if res.Items == nil {
		res.Items = []Record{}
	}
	res.TotalEstimate = strconv.Itoa(len(res.Items))
	return res
}
