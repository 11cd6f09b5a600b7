package store

import (
	"context"
	"fmt"

	"github.com/banshee-data/sidewalk.report/internal/obstacle"
	"github.com/banshee-data/sidewalk.report/internal/pipeline"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/paulmach/orb/encoding/wkt"
)

type segmentRow struct {
	ID         string  `db:"segment_id"`
	RunID      string  `db:"run_id"`
	Seq        int     `db:"seq"`
	SidewalkID int64   `db:"sidewalk_id"`
	Geometry   string  `db:"geometry"`
	AvgWidth   float64 `db:"avg_width"`
	MinWidth   float64 `db:"min_width"`
	Severity   string  `db:"severity"`
	Impassable bool    `db:"impassable"`
	Coverage   bool    `db:"pc_coverage"`
}

type obstacleRow struct {
	ID       string `db:"obstacle_id"`
	RunID    string `db:"run_id"`
	Seq      int    `db:"seq"`
	TileID   string `db:"tile_id"`
	Tag      string `db:"tag"`
	Cluster  int    `db:"cluster"`
	Points   int    `db:"points"`
	Geometry string `db:"geometry"`
}

// SkippedRow is a stored skipped item. The error is kept as text.
type SkippedRow struct {
	RunID  string `db:"run_id"`
	Seq    int    `db:"seq"`
	ItemID string `db:"item_id"`
	Stage  string `db:"stage"`
	Reason string `db:"reason"`
}

// InsertSegments appends segments to a run, keeping their order.
func (db *DB) InsertSegments(ctx context.Context, runID string, segs []pipeline.SegmentRecord) error {
	const q = `INSERT INTO segments
		(segment_id, run_id, seq, sidewalk_id, geometry, avg_width, min_width, severity, impassable, pc_coverage)
		VALUES (:segment_id, :run_id, :seq, :sidewalk_id, :geometry, :avg_width, :min_width, :severity, :impassable, :pc_coverage)`
	err := db.inTx(ctx, func(tx *sqlx.Tx) error {
		base, err := nextSeq(ctx, tx, "segments", runID)
		if err != nil {
			return err
		}
		for i, s := range segs {
			row := segmentRow{
				ID:         uuid.NewString(),
				RunID:      runID,
				Seq:        base + i,
				SidewalkID: s.SidewalkID,
				Geometry:   wkt.MarshalString(s.Line),
				AvgWidth:   s.AvgWidth,
				MinWidth:   s.MinWidth,
				Severity:   s.Severity,
				Impassable: s.Impassable,
				Coverage:   s.Coverage,
			}
			if _, err := tx.NamedExecContext(ctx, q, row); err != nil {
				return fmt.Errorf("insert segment %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logs.Diagf("run %s: stored %d segments", runID, len(segs))
	return nil
}

// ListSegments returns a run's segments in insertion order.
func (db *DB) ListSegments(ctx context.Context, runID string) ([]pipeline.SegmentRecord, error) {
	var rows []segmentRow
	err := db.SelectContext(ctx, &rows, db.Rebind(
		`SELECT segment_id, run_id, seq, sidewalk_id, geometry, avg_width, min_width, severity, impassable, pc_coverage
		 FROM segments WHERE run_id = ? ORDER BY seq`), runID)
	if err != nil {
		return nil, fmt.Errorf("list segments of run %s: %w", runID, err)
	}
	out := make([]pipeline.SegmentRecord, len(rows))
	for i, r := range rows {
		ls, err := wkt.UnmarshalLineString(r.Geometry)
		if err != nil {
			return nil, fmt.Errorf("segment %s geometry: %w", r.ID, err)
		}
		out[i] = pipeline.SegmentRecord{
			SidewalkID: r.SidewalkID,
			Line:       ls,
			AvgWidth:   r.AvgWidth,
			MinWidth:   r.MinWidth,
			Severity:   r.Severity,
			Impassable: r.Impassable,
			Coverage:   r.Coverage,
		}
	}
	return out, nil
}

// InsertObstacles appends footprints to a run. tileIDs parallels
// footprints.
func (db *DB) InsertObstacles(ctx context.Context, runID string, tileIDs []string, footprints []obstacle.Footprint) error {
	if len(tileIDs) != len(footprints) {
		return fmt.Errorf("%d tile ids for %d footprints", len(tileIDs), len(footprints))
	}
	const q = `INSERT INTO obstacles
		(obstacle_id, run_id, seq, tile_id, tag, cluster, points, geometry)
		VALUES (:obstacle_id, :run_id, :seq, :tile_id, :tag, :cluster, :points, :geometry)`
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		base, err := nextSeq(ctx, tx, "obstacles", runID)
		if err != nil {
			return err
		}
		for i, fp := range footprints {
			row := obstacleRow{
				ID:       uuid.NewString(),
				RunID:    runID,
				Seq:      base + i,
				TileID:   tileIDs[i],
				Tag:      fp.Tag,
				Cluster:  fp.Cluster,
				Points:   fp.Points,
				Geometry: wkt.MarshalString(fp.Polygon),
			}
			if _, err := tx.NamedExecContext(ctx, q, row); err != nil {
				return fmt.Errorf("insert obstacle %d: %w", i, err)
			}
		}
		return nil
	})
}

// ListObstacles returns a run's footprints and their tile ids in
// insertion order.
func (db *DB) ListObstacles(ctx context.Context, runID string) (tileIDs []string, footprints []obstacle.Footprint, err error) {
	var rows []obstacleRow
	err = db.SelectContext(ctx, &rows, db.Rebind(
		`SELECT obstacle_id, run_id, seq, tile_id, tag, cluster, points, geometry
		 FROM obstacles WHERE run_id = ? ORDER BY seq`), runID)
	if err != nil {
		return nil, nil, fmt.Errorf("list obstacles of run %s: %w", runID, err)
	}
	for _, r := range rows {
		p, err := wkt.UnmarshalPolygon(r.Geometry)
		if err != nil {
			return nil, nil, fmt.Errorf("obstacle %s geometry: %w", r.ID, err)
		}
		tileIDs = append(tileIDs, r.TileID)
		footprints = append(footprints, obstacle.Footprint{Polygon: p, Tag: r.Tag, Cluster: r.Cluster, Points: r.Points})
	}
	return tileIDs, footprints, nil
}

// InsertSkipped records the skipped items of a run.
func (db *DB) InsertSkipped(ctx context.Context, runID string, skipped []pipeline.Skipped) error {
	const q = `INSERT INTO skipped (run_id, seq, item_id, stage, reason)
		VALUES (:run_id, :seq, :item_id, :stage, :reason)`
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		base, err := nextSeq(ctx, tx, "skipped", runID)
		if err != nil {
			return err
		}
		for i, s := range skipped {
			reason := ""
			if s.Err != nil {
				reason = s.Err.Error()
			}
			row := SkippedRow{RunID: runID, Seq: base + i, ItemID: s.ID, Stage: s.Stage, Reason: reason}
			if _, err := tx.NamedExecContext(ctx, q, row); err != nil {
				return fmt.Errorf("insert skipped %s: %w", s.ID, err)
			}
		}
		return nil
	})
}

// ListSkipped returns the skipped items of a run in insertion order.
func (db *DB) ListSkipped(ctx context.Context, runID string) ([]SkippedRow, error) {
	var rows []SkippedRow
	err := db.SelectContext(ctx, &rows, db.Rebind(
		`SELECT run_id, seq, item_id, stage, reason FROM skipped WHERE run_id = ? ORDER BY seq`), runID)
	if err != nil {
		return nil, fmt.Errorf("list skipped of run %s: %w", runID, err)
	}
	return rows, nil
}

// nextSeq returns the first free sequence number of a run in table.
func nextSeq(ctx context.Context, tx *sqlx.Tx, table, runID string) (int, error) {
	var n int
	q := fmt.Sprintf("SELECT COALESCE(MAX(seq) + 1, 0) FROM %s WHERE run_id = ?", table)
	if err := tx.GetContext(ctx, &n, tx.Rebind(q), runID); err != nil {
		return 0, fmt.Errorf("next %s sequence: %w", table, err)
	}
	return n, nil
}
