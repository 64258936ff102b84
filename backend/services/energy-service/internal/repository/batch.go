package repository

import (
	"context"
	"fmt"
	"strings"
)

// maxBindParams stays under the PostgreSQL limit of 65535 bind parameters per statement.
const maxBindParams = 60000

// valuesClause renders "($1,$2),($3,$4)" for rows × cols placeholders.
func valuesClause(rows, cols int) string {
	var b strings.Builder
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('(')
		for c := 0; c < cols; c++ {
			if c > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "$%d", n)
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}

// execBatch inserts total rows using as few multi-row statements as the parameter limit
// allows. rowArgs returns the bind values for row i and must return exactly cols values.
func (q *Queries) execBatch(ctx context.Context, operation, head string, cols, total int, rowArgs func(i int) []any) (int64, error) {
	if total == 0 {
		return 0, nil
	}
	chunk := maxBindParams / cols
	var inserted int64
	for start := 0; start < total; start += chunk {
		end := start + chunk
		if end > total {
			end = total
		}
		args := make([]any, 0, (end-start)*cols)
		for i := start; i < end; i++ {
			args = append(args, rowArgs(i)...)
		}
		query := head + " VALUES " + valuesClause(end-start, cols)
		result, err := q.db.ExecContext(ctx, query, args...)
		if err != nil {
			return inserted, wrapDBError(operation, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return inserted, wrapDBError(operation, err)
		}
		inserted += affected
	}
	return inserted, nil
}
