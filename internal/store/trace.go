package store

import (
	"context"
	"fmt"
)

// Trace event kinds.
const (
	// TraceEnter marks entry into a group during resolution.
	TraceEnter = "enter"

	// TraceBranch marks a deterministic dispatch decision; value is the
	// final accumulator the range arms were matched against.
	TraceBranch = "branch"

	// TraceResult marks the terminal the resolution ended on; value is
	// the callback result or sprite index.
	TraceResult = "result"
)

// TraceEvent is one step of a recorded resolution. Seq orders events
// within one query token.
type TraceEvent struct {
	Token string `json:"token"`
	Seq   int64  `json:"seq"`
	Kind  string `json:"kind"`
	Node  string `json:"node"`
	Value uint32 `json:"value"`
}

// WriteTrace appends the events of one resolution in a single
// transaction, so a trace is either fully recorded or absent.
func (s *Store) WriteTrace(ctx context.Context, events []TraceEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trace_events (query_token, seq, kind, node, value)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx, ev.Token, ev.Seq, ev.Kind, ev.Node, int64(ev.Value)); err != nil {
			return fmt.Errorf("write trace event %d: %w", ev.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	return nil
}

// ReadTrace returns the events recorded under a query token in seq
// order. An unknown token yields an empty slice.
func (s *Store) ReadTrace(ctx context.Context, token string) ([]TraceEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT query_token, seq, kind, node, value
		FROM trace_events
		WHERE query_token = ?
		ORDER BY seq ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("read trace %s: %w", token, err)
	}
	defer rows.Close()

	var events []TraceEvent
	for rows.Next() {
		var (
			ev    TraceEvent
			value int64
		)
		if err := rows.Scan(&ev.Token, &ev.Seq, &ev.Kind, &ev.Node, &value); err != nil {
			return nil, fmt.Errorf("scan trace event: %w", err)
		}
		ev.Value = uint32(value)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read trace %s: %w", token, err)
	}
	return events, nil
}
