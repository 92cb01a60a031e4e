package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/joeblew999/plat-quake/internal/quake"
)

// ErrNotReadOnly is returned by Snapshot.Query for statements that could
// modify the snapshot.
var ErrNotReadOnly = errors.New("only SELECT, WITH, SHOW, DESCRIBE and SUMMARIZE statements are allowed")

var snapshotSchema = []string{
	`CREATE TABLE IF NOT EXISTS quakes (
		overlay VARCHAR,
		id VARCHAR,
		mag DOUBLE,
		place VARCHAR,
		lon DOUBLE,
		lat DOUBLE,
		color VARCHAR,
		radius DOUBLE
	)`,
	`CREATE TABLE IF NOT EXISTS plate_boundaries (
		overlay VARCHAR,
		name VARCHAR,
		plate_a VARCHAR,
		plate_b VARCHAR,
		vertices INTEGER,
		length_km DOUBLE
	)`,
}

// Snapshot mirrors loaded overlay groups into DuckDB so they can be
// queried with SQL.
type Snapshot struct {
	db *sql.DB
}

// NewSnapshot creates the snapshot tables.
func NewSnapshot(ctx context.Context, db *sql.DB) (*Snapshot, error) {
	for _, stmt := range snapshotSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, errors.Wrap(err, "create snapshot schema")
		}
	}
	return &Snapshot{db: db}, nil
}

// InsertMarkers stores the markers of one overlay group.
func (s *Snapshot) InsertMarkers(ctx context.Context, overlay string, markers []Marker) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO quakes (overlay, id, mag, place, lon, lat, color, radius) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare")
	}
	defer stmt.Close()

	for _, m := range markers {
		var mag sql.NullFloat64
		if m.Magnitude != nil {
			mag = sql.NullFloat64{Float64: *m.Magnitude, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, overlay, m.ID, mag, m.Place, m.Lon, m.Lat, m.Style.FillColor, m.Style.Radius); err != nil {
			return errors.Wrapf(err, "insert marker %s", m.ID)
		}
	}
	return errors.Wrap(tx.Commit(), "commit")
}

// InsertBoundaries stores the boundaries of one overlay group.
func (s *Snapshot) InsertBoundaries(ctx context.Context, overlay string, boundaries []Boundary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO plate_boundaries (overlay, name, plate_a, plate_b, vertices, length_km) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare")
	}
	defer stmt.Close()

	for _, b := range boundaries {
		if _, err := stmt.ExecContext(ctx, overlay, b.Name, b.PlateA, b.PlateB, b.Vertices, b.LengthKm); err != nil {
			return errors.Wrapf(err, "insert boundary %s", b.Name)
		}
	}
	return errors.Wrap(tx.Commit(), "commit")
}

// Tables lists the snapshot tables.
func (s *Snapshot) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, errors.Wrap(err, "list tables")
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "scan table name")
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// QueryResult is a tabular query result.
type QueryResult struct {
	Columns []string
	Rows    []map[string]any
}

// Query runs a read-only statement against the snapshot.
func (s *Snapshot) Query(ctx context.Context, query string) (*QueryResult, error) {
	if !readOnly(query) {
		return nil, ErrNotReadOnly
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "columns")
	}

	result := &QueryResult{Columns: columns, Rows: []map[string]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, errors.Wrap(err, "scan row")
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result.Rows = append(result.Rows, row)
	}
	return result, rows.Err()
}

// MagnitudeBands counts snapshot quakes of an overlay per legend band.
func (s *Snapshot) MagnitudeBands(ctx context.Context, overlay string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT color, count(*) FROM quakes WHERE overlay = ? GROUP BY color`, overlay)
	if err != nil {
		return nil, errors.Wrap(err, "count bands")
	}
	defer rows.Close()

	byColor := map[string]int{}
	for rows.Next() {
		var (
			color string
			n     int
		)
		if err := rows.Scan(&color, &n); err != nil {
			return nil, errors.Wrap(err, "scan band")
		}
		byColor[color] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	bands := make(map[string]int, len(quake.Palette))
	for _, e := range quake.Legend() {
		bands[e.Label] = byColor[e.Color]
	}
	return bands, nil
}

func readOnly(query string) bool {
	q := strings.TrimSpace(query)
	q = strings.TrimRight(q, "; \t\n")
	if q == "" || strings.Contains(q, ";") {
		return false
	}
	first := strings.ToUpper(strings.Fields(q)[0])
	switch first {
	case "SELECT", "WITH", "SHOW", "DESCRIBE", "SUMMARIZE":
		return true
	}
	return false
}
