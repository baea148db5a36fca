package orc

import (
	"github.com/orcdb/orcdb/encoding/common"
)

// selectRowGroups partitions the stripe into ceil(rowsInStripe/rowsInRowGroup)
// groups and returns, in ascending order, the indices of the groups the
// predicate does not prune. For each group the predicate sees one statistics
// entry per column ordinal; ordinals without a decoded row index stay nil.
//
// An empty result means the whole stripe is pruned, which callers surface as
// "no stripe", not as a stripe with zero rows.
func selectRowGroups(rowsInStripe, rowsInRowGroup uint64, numColumns int, indexes map[common.ColumnID][]RowGroupIndexEntry, predicate common.Predicate) []int {
	numGroups := rowGroupCount(rowsInStripe, rowsInRowGroup)

	var selected []int
	remaining := rowsInStripe
	for group := 0; group < numGroups; group++ {
		rows := rowsInRowGroup
		if remaining < rows {
			rows = remaining
		}
		remaining -= rows

		stats := make([]*common.ColumnStatistics, numColumns)
		for column, entries := range indexes {
			if group < len(entries) {
				stats[column] = &entries[group].Statistics
			}
		}

		if predicate.Matches(int64(rows), stats) {
			selected = append(selected, group)
		}
	}
	return selected
}

func rowGroupCount(rowsInStripe, rowsInRowGroup uint64) int {
	return int((rowsInStripe + rowsInRowGroup - 1) / rowsInRowGroup)
}
