package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/evmap/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS locations (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	type        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	longitude   REAL,
	latitude    REAL,
	maps_link   TEXT NOT NULL DEFAULT '',
	geom        BLOB,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS tokens (
	value      TEXT PRIMARY KEY,
	label      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_locations_type ON locations(type);
CREATE INDEX IF NOT EXISTS idx_locations_name ON locations(name);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteInsertLocation = `INSERT INTO locations (name, type, description, longitude, latitude, maps_link, geom, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (s *SQLiteStore) CreateLocation(ctx context.Context, loc *model.Location) error {
	g, err := pointEWKB(loc)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx, sqliteInsertLocation,
		loc.Name, loc.Type, loc.Description, loc.Longitude, loc.Latitude, loc.MapsLink, nullable(g), now, now,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert location")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: last insert id")
	}

	loc.ID = id
	loc.CreatedAt = now
	loc.UpdatedAt = now
	return nil
}

const sqliteSelectLocation = `SELECT id, name, type, description, longitude, latitude, maps_link, created_at, updated_at FROM locations`

func (s *SQLiteStore) GetLocation(ctx context.Context, id int64) (*model.Location, error) {
	row := s.db.QueryRowContext(ctx, sqliteSelectLocation+` WHERE id = ?`, id)
	loc, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "location %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get location %d", id)
	}
	return loc, nil
}

func (s *SQLiteStore) ListLocations(ctx context.Context, filter LocationFilter) ([]model.Location, error) {
	query := sqliteSelectLocation + ` WHERE 1=1`
	var args []any

	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, filter.Type)
	}
	if filter.Query != "" {
		query += ` AND (name LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`
		like := containsPattern(filter.Query)
		args = append(args, like, like)
	}
	query += ` ORDER BY id LIMIT ?`
	args = append(args, filter.limit())

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list locations")
	}
	defer rows.Close() //nolint:errcheck

	var locs []model.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan location")
		}
		locs = append(locs, *loc)
	}
	return locs, eris.Wrap(rows.Err(), "sqlite: list locations iterate")
}

func (s *SQLiteStore) UpdateLocation(ctx context.Context, loc *model.Location) error {
	g, err := pointEWKB(loc)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE locations SET name = ?, type = ?, description = ?, longitude = ?, latitude = ?, maps_link = ?, geom = ?, updated_at = ? WHERE id = ?`,
		loc.Name, loc.Type, loc.Description, loc.Longitude, loc.Latitude, loc.MapsLink, nullable(g), now, loc.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update location %d", loc.ID)
	}
	if err := checkRowsAffected(res, "location", loc.ID); err != nil {
		return err
	}
	loc.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) DeleteLocation(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete location %d", id)
	}
	return checkRowsAffected(res, "location", id)
}

func (s *SQLiteStore) ListTypes(ctx context.Context) ([]model.TypeCount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM locations GROUP BY type ORDER BY type`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list types")
	}
	defer rows.Close() //nolint:errcheck

	var types []model.TypeCount
	for rows.Next() {
		var tc model.TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan type")
		}
		types = append(types, tc)
	}
	return types, eris.Wrap(rows.Err(), "sqlite: list types iterate")
}

func (s *SQLiteStore) SeedLocations(ctx context.Context, locs []model.Location, truncate bool) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin seed")
	}
	defer tx.Rollback() //nolint:errcheck

	if truncate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM locations`); err != nil {
			return 0, eris.Wrap(err, "sqlite: truncate locations")
		}
	}

	stmt, err := tx.PrepareContext(ctx, sqliteInsertLocation)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare seed insert")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	var n int64
	for i := range locs {
		loc := &locs[i]
		g, err := pointEWKB(loc)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx,
			loc.Name, loc.Type, loc.Description, loc.Longitude, loc.Latitude, loc.MapsLink, nullable(g), now, now,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: seed location %q", loc.Name)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit seed")
	}
	return n, nil
}

// CreateToken stores a token, generating its value when empty.
func (s *SQLiteStore) CreateToken(ctx context.Context, tok *model.Token) error {
	if tok.Value == "" {
		tok.Value = uuid.NewString()
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tokens (value, label, created_at) VALUES (?, ?, ?)`,
		tok.Value, tok.Label, now,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert token")
	}
	tok.CreatedAt = now
	return nil
}

func (s *SQLiteStore) TokenExists(ctx context.Context, value string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM tokens WHERE value = ?`, value).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "sqlite: lookup token")
	}
	return true, nil
}

func (s *SQLiteStore) ListTokens(ctx context.Context) ([]model.Token, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT value, label, created_at FROM tokens ORDER BY created_at, value`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tokens")
	}
	defer rows.Close() //nolint:errcheck

	var toks []model.Token
	for rows.Next() {
		var tok model.Token
		if err := rows.Scan(&tok.Value, &tok.Label, &tok.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan token")
		}
		toks = append(toks, tok)
	}
	return toks, eris.Wrap(rows.Err(), "sqlite: list tokens iterate")
}

func (s *SQLiteStore) DeleteToken(ctx context.Context, value string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tokens WHERE value = ?`, value)
	if err != nil {
		return eris.Wrap(err, "sqlite: delete token")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrap(ErrNotFound, "token")
	}
	return nil
}

func checkRowsAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %d", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanLocation(row scannable) (*model.Location, error) {
	var (
		loc      model.Location
		lon, lat sql.NullFloat64
	)
	err := row.Scan(&loc.ID, &loc.Name, &loc.Type, &loc.Description, &lon, &lat, &loc.MapsLink, &loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	loc.Longitude = floatPtr(lon.Valid, lon.Float64)
	loc.Latitude = floatPtr(lat.Valid, lat.Float64)
	return &loc, nil
}
