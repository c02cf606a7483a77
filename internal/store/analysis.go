package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/grfkit/grfscope/internal/analyzer"
	"github.com/grfkit/grfscope/internal/ir"
)

// WriteAnalysis upserts the cached analysis for a graph hash. Writing
// the same hash twice replaces the row, which makes re-analysis after
// an engine upgrade a plain overwrite.
//
// The uint64 masks are stored through int64; SQLite keeps all 64 bits
// and the read side converts back.
func (s *Store) WriteAnalysis(ctx context.Context, graphHash string, res *analyzer.Result) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analyses
		(graph_hash, flags, callbacks_used, cb36_properties, cb_result, anim_offsets, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(graph_hash) DO UPDATE SET
			flags = excluded.flags,
			callbacks_used = excluded.callbacks_used,
			cb36_properties = excluded.cb36_properties,
			cb_result = excluded.cb_result,
			anim_offsets = excluded.anim_offsets,
			engine_version = excluded.engine_version,
			ir_version = excluded.ir_version
	`,
		graphHash,
		int64(res.Flags),
		int64(res.CallbacksUsed),
		int64(res.CB36Properties),
		int64(res.CBResult),
		[]byte(res.AnimOffsets),
		ir.EngineVersion,
		ir.Version,
	)
	if err != nil {
		return fmt.Errorf("write analysis %s: %w", graphHash, err)
	}
	return nil
}

// ReadAnalysis returns the cached analysis for a graph hash, with
// ok=false when the hash was never analyzed.
func (s *Store) ReadAnalysis(ctx context.Context, graphHash string) (*analyzer.Result, bool, error) {
	var (
		flags, callbacks, properties, cbResult int64
		animOffsets                            []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT flags, callbacks_used, cb36_properties, cb_result, anim_offsets
		FROM analyses
		WHERE graph_hash = ?
	`, graphHash).Scan(&flags, &callbacks, &properties, &cbResult, &animOffsets)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read analysis %s: %w", graphHash, err)
	}

	res := &analyzer.Result{
		Flags:          analyzer.Usage(flags),
		CallbacksUsed:  uint64(callbacks),
		CB36Properties: uint64(properties),
		CBResult:       uint16(cbResult),
	}
	if len(animOffsets) > 0 {
		res.AnimOffsets = append([]uint8(nil), animOffsets...)
	}
	return res, true, nil
}
