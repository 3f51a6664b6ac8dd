package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// nextSequence hands out the global monotonic sequence shared by every event
// table, so LLM calls and mastery transitions can be ordered against each
// other. The single UPDATE ... RETURNING makes the increment atomic in the
// database; no process-level lock is taken because a caller inside a SQLite
// transaction already owns the only connection.
func nextSequence(ctx context.Context, q sqlx.QueryerContext) (int64, error) {
	var seq int64
	err := q.QueryRowxContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}
