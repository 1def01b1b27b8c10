package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "modernc.org/sqlite"

	"github.com/san-kum/ssasim/internal/aggregate"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		seed BIGINT NOT NULL,
		metadata TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS segments (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		idx INTEGER NOT NULL,
		lower_bound DOUBLE PRECISION NOT NULL,
		upper_bound DOUBLE PRECISION NOT NULL,
		snapshots INTEGER NOT NULL,
		mean TEXT,
		std TEXT,
		PRIMARY KEY (run_id, idx)
	)`,
	`CREATE TABLE IF NOT EXISTS end_states (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		run INTEGER NOT NULL,
		end_time DOUBLE PRECISION NOT NULL,
		counts TEXT NOT NULL,
		PRIMARY KEY (run_id, run)
	)`,
	`CREATE TABLE IF NOT EXISTS paths (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		run INTEGER NOT NULL,
		idx INTEGER NOT NULL,
		at_time DOUBLE PRECISION NOT NULL,
		counts TEXT NOT NULL,
		PRIMARY KEY (run_id, run, idx)
	)`,
}

// SQLStore persists runs in a relational database. Vectors are stored as
// JSON arrays so the schema does not depend on the species count.
type SQLStore struct {
	db       *sql.DB
	numbered bool
}

// OpenSQLite opens (or creates) a SQLite database file.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)
	return newSQLStore(ctx, db, false)
}

// OpenPostgres connects through the pgx database/sql driver.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return newSQLStore(ctx, db, true)
}

func newSQLStore(ctx context.Context, db *sql.DB, numbered bool) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &SQLStore{db: db, numbered: numbered}, nil
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// rebind rewrites ? placeholders as $1, $2, ... for postgres.
func (s *SQLStore) rebind(query string) string {
	if !s.numbered {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

func (s *SQLStore) Save(ctx context.Context, rec *Record) (string, error) {
	if err := prepare(rec); err != nil {
		return "", err
	}
	meta, err := json.Marshal(rec.Meta)
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO runs (id, name, created_at, seed, metadata) VALUES (?, ?, ?, ?, ?)`),
		rec.Meta.ID, rec.Meta.Name, rec.Meta.Timestamp.UnixNano(), rec.Meta.Seed, string(meta)); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	if rec.Segments != nil {
		stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO segments (run_id, idx, lower_bound, upper_bound, snapshots, mean, std) VALUES (?, ?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return "", fmt.Errorf("prepare segments: %w", err)
		}
		defer stmt.Close()
		for i, seg := range rec.Segments.Segments {
			mean, std := sql.NullString{}, sql.NullString{}
			if !seg.Empty() {
				mean, err = nullJSON(seg.Mean)
				if err != nil {
					return "", err
				}
				std, err = nullJSON(seg.StdDev)
				if err != nil {
					return "", err
				}
			}
			if _, err := stmt.ExecContext(ctx, rec.Meta.ID, i, seg.Lower, seg.Upper, seg.Count, mean, std); err != nil {
				return "", fmt.Errorf("insert segment %d: %w", i, err)
			}
		}
	}

	if rec.EndStates != nil {
		stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO end_states (run_id, run, end_time, counts) VALUES (?, ?, ?, ?)`))
		if err != nil {
			return "", fmt.Errorf("prepare end states: %w", err)
		}
		defer stmt.Close()
		end := rec.EndStates
		row := make([]float64, len(end.Species))
		for r := 0; r < end.Runs(); r++ {
			for j := range row {
				row[j] = end.Counts[j][r]
			}
			counts, err := json.Marshal(row)
			if err != nil {
				return "", err
			}
			if _, err := stmt.ExecContext(ctx, rec.Meta.ID, r, end.Time[r], string(counts)); err != nil {
				return "", fmt.Errorf("insert end state %d: %w", r, err)
			}
		}
	}

	if len(rec.Paths) > 0 {
		stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO paths (run_id, run, idx, at_time, counts) VALUES (?, ?, ?, ?, ?)`))
		if err != nil {
			return "", fmt.Errorf("prepare paths: %w", err)
		}
		defer stmt.Close()
		for _, p := range rec.Paths {
			for i, t := range p.Times {
				counts, err := json.Marshal(p.Counts[i])
				if err != nil {
					return "", err
				}
				if _, err := stmt.ExecContext(ctx, rec.Meta.ID, p.Run, i, t, string(counts)); err != nil {
					return "", fmt.Errorf("insert path %d: %w", p.Run, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return rec.Meta.ID, nil
}

func (s *SQLStore) List(ctx context.Context) ([]RunMetadata, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT metadata FROM runs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var meta RunMetadata
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			return nil, fmt.Errorf("decode run metadata: %w", err)
		}
		runs = append(runs, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortRuns(runs)
	return runs, nil
}

func (s *SQLStore) Load(ctx context.Context, id string) (*Record, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT metadata FROM runs WHERE id = ?`), id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}

	rec := &Record{}
	if err := json.Unmarshal([]byte(raw), &rec.Meta); err != nil {
		return nil, fmt.Errorf("decode run metadata: %w", err)
	}
	if rec.Segments, err = s.loadSegments(ctx, rec.Meta); err != nil {
		return nil, err
	}
	if rec.EndStates, err = s.loadEndStates(ctx, rec.Meta); err != nil {
		return nil, err
	}
	if rec.Paths, err = s.loadPaths(ctx, id); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *SQLStore) loadSegments(ctx context.Context, meta RunMetadata) (*aggregate.Segmentation, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT lower_bound, upper_bound, snapshots, mean, std FROM segments WHERE run_id = ? ORDER BY idx`), meta.ID)
	if err != nil {
		return nil, fmt.Errorf("load segments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var segs []aggregate.Segment
	for rows.Next() {
		var seg aggregate.Segment
		var mean, std sql.NullString
		if err := rows.Scan(&seg.Lower, &seg.Upper, &seg.Count, &mean, &std); err != nil {
			return nil, err
		}
		if seg.Mean, err = decodeNull(mean); err != nil {
			return nil, err
		}
		if seg.StdDev, err = decodeNull(std); err != nil {
			return nil, err
		}
		segs = append(segs, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if segs == nil {
		return nil, nil
	}
	return segmentation(meta, segs), nil
}

func (s *SQLStore) loadEndStates(ctx context.Context, meta RunMetadata) (*aggregate.EndStateSample, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT end_time, counts FROM end_states WHERE run_id = ? ORDER BY run`), meta.ID)
	if err != nil {
		return nil, fmt.Errorf("load end states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	end := &aggregate.EndStateSample{Species: meta.Species, Counts: make([][]float64, len(meta.Species))}
	for rows.Next() {
		var t float64
		var raw string
		if err := rows.Scan(&t, &raw); err != nil {
			return nil, err
		}
		var counts []float64
		if err := json.Unmarshal([]byte(raw), &counts); err != nil {
			return nil, fmt.Errorf("decode end state: %w", err)
		}
		if len(counts) != len(meta.Species) {
			return nil, fmt.Errorf("end state has %d species, expected %d", len(counts), len(meta.Species))
		}
		end.Time = append(end.Time, t)
		for j, v := range counts {
			end.Counts[j] = append(end.Counts[j], v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if end.Runs() == 0 {
		return nil, nil
	}
	return end, nil
}

func (s *SQLStore) loadPaths(ctx context.Context, id string) ([]Path, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT run, at_time, counts FROM paths WHERE run_id = ? ORDER BY run, idx`), id)
	if err != nil {
		return nil, fmt.Errorf("load paths: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var paths []Path
	for rows.Next() {
		var run int
		var t float64
		var raw string
		if err := rows.Scan(&run, &t, &raw); err != nil {
			return nil, err
		}
		var counts []float64
		if err := json.Unmarshal([]byte(raw), &counts); err != nil {
			return nil, fmt.Errorf("decode path: %w", err)
		}
		if len(paths) == 0 || paths[len(paths)-1].Run != run {
			paths = append(paths, Path{Run: run})
		}
		p := &paths[len(paths)-1]
		p.Times = append(p.Times, t)
		p.Counts = append(p.Counts, counts)
	}
	return paths, rows.Err()
}

func nullJSON(v []float64) (sql.NullString, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeNull(ns sql.NullString) ([]float64, error) {
	if !ns.Valid {
		return nil, nil
	}
	var out []float64
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil, fmt.Errorf("decode vector: %w", err)
	}
	return out, nil
}

var _ Store = (*SQLStore)(nil)
