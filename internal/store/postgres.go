package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/evmap/internal/db"
	"github.com/sells-group/evmap/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS locations (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	type        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	longitude   DOUBLE PRECISION,
	latitude    DOUBLE PRECISION,
	maps_link   TEXT NOT NULL DEFAULT '',
	geom        BYTEA,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tokens (
	value      TEXT PRIMARY KEY,
	label      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_locations_type ON locations(type);
CREATE INDEX IF NOT EXISTS idx_locations_name ON locations(name);
`

// Ping checks that the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateLocation(ctx context.Context, loc *model.Location) error {
	g, err := pointEWKB(loc)
	if err != nil {
		return err
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO locations (name, type, description, longitude, latitude, maps_link, geom)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at, updated_at`,
		loc.Name, loc.Type, loc.Description, loc.Longitude, loc.Latitude, loc.MapsLink, nullable(g),
	).Scan(&loc.ID, &loc.CreatedAt, &loc.UpdatedAt)
	return eris.Wrap(err, "postgres: insert location")
}

const postgresSelectLocation = `SELECT id, name, type, description, longitude, latitude, maps_link, created_at, updated_at FROM locations`

func (s *PostgresStore) GetLocation(ctx context.Context, id int64) (*model.Location, error) {
	row := s.pool.QueryRow(ctx, postgresSelectLocation+` WHERE id = $1`, id)

	var loc model.Location
	err := row.Scan(&loc.ID, &loc.Name, &loc.Type, &loc.Description, &loc.Longitude, &loc.Latitude, &loc.MapsLink, &loc.CreatedAt, &loc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "location %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get location %d", id)
	}
	return &loc, nil
}

func (s *PostgresStore) ListLocations(ctx context.Context, filter LocationFilter) ([]model.Location, error) {
	query := postgresSelectLocation + ` WHERE 1=1`
	var args []any
	argN := 1

	if filter.Type != "" {
		query += ` AND type = $` + strconv.Itoa(argN)
		args = append(args, filter.Type)
		argN++
	}
	if filter.Query != "" {
		p := `$` + strconv.Itoa(argN)
		query += ` AND (name ILIKE ` + p + ` ESCAPE '\' OR description ILIKE ` + p + ` ESCAPE '\')`
		args = append(args, containsPattern(filter.Query))
		argN++
	}
	query += ` ORDER BY id LIMIT $` + strconv.Itoa(argN)
	args = append(args, filter.limit())
	argN++

	if filter.Offset > 0 {
		query += ` OFFSET $` + strconv.Itoa(argN)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list locations")
	}
	defer rows.Close()

	var locs []model.Location
	for rows.Next() {
		var loc model.Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Type, &loc.Description, &loc.Longitude, &loc.Latitude, &loc.MapsLink, &loc.CreatedAt, &loc.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan location")
		}
		locs = append(locs, loc)
	}
	return locs, eris.Wrap(rows.Err(), "postgres: list locations iterate")
}

func (s *PostgresStore) UpdateLocation(ctx context.Context, loc *model.Location) error {
	g, err := pointEWKB(loc)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`UPDATE locations SET name = $1, type = $2, description = $3, longitude = $4, latitude = $5, maps_link = $6, geom = $7, updated_at = $8 WHERE id = $9`,
		loc.Name, loc.Type, loc.Description, loc.Longitude, loc.Latitude, loc.MapsLink, nullable(g), now, loc.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update location %d", loc.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "location %d", loc.ID)
	}
	loc.UpdatedAt = now
	return nil
}

func (s *PostgresStore) DeleteLocation(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete location %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "location %d", id)
	}
	return nil
}

func (s *PostgresStore) ListTypes(ctx context.Context) ([]model.TypeCount, error) {
	rows, err := s.pool.Query(ctx, `SELECT type, COUNT(*) FROM locations GROUP BY type ORDER BY type`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list types")
	}
	defer rows.Close()

	var types []model.TypeCount
	for rows.Next() {
		var (
			tc model.TypeCount
			n  int64
		)
		if err := rows.Scan(&tc.Type, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan type")
		}
		tc.Count = int(n)
		types = append(types, tc)
	}
	return types, eris.Wrap(rows.Err(), "postgres: list types iterate")
}

var locationCopyColumns = []string{"name", "type", "description", "longitude", "latitude", "maps_link", "geom"}

// SeedLocations loads locations with COPY inside one transaction.
func (s *PostgresStore) SeedLocations(ctx context.Context, locs []model.Location, truncate bool) (int64, error) {
	rows := make([][]any, 0, len(locs))
	for i := range locs {
		loc := &locs[i]
		g, err := pointEWKB(loc)
		if err != nil {
			return 0, err
		}
		rows = append(rows, []any{loc.Name, loc.Type, loc.Description, loc.Longitude, loc.Latitude, loc.MapsLink, nullable(g)})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin seed")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if truncate {
		if _, err := tx.Exec(ctx, `TRUNCATE locations RESTART IDENTITY`); err != nil {
			return 0, eris.Wrap(err, "postgres: truncate locations")
		}
	}

	n, err := db.CopyFrom(ctx, tx, "locations", locationCopyColumns, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: seed locations")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit seed")
	}
	return n, nil
}

// CreateToken stores a token, generating its value when empty.
func (s *PostgresStore) CreateToken(ctx context.Context, tok *model.Token) error {
	if tok.Value == "" {
		tok.Value = uuid.NewString()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO tokens (value, label) VALUES ($1, $2) RETURNING created_at`,
		tok.Value, tok.Label,
	).Scan(&tok.CreatedAt)
	return eris.Wrap(err, "postgres: insert token")
}

func (s *PostgresStore) TokenExists(ctx context.Context, value string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tokens WHERE value = $1)`, value).Scan(&exists)
	if err != nil {
		return false, eris.Wrap(err, "postgres: lookup token")
	}
	return exists, nil
}

func (s *PostgresStore) ListTokens(ctx context.Context) ([]model.Token, error) {
	rows, err := s.pool.Query(ctx, `SELECT value, label, created_at FROM tokens ORDER BY created_at, value`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tokens")
	}
	defer rows.Close()

	var toks []model.Token
	for rows.Next() {
		var tok model.Token
		if err := rows.Scan(&tok.Value, &tok.Label, &tok.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan token")
		}
		toks = append(toks, tok)
	}
	return toks, eris.Wrap(rows.Err(), "postgres: list tokens iterate")
}

func (s *PostgresStore) DeleteToken(ctx context.Context, value string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tokens WHERE value = $1`, value)
	if err != nil {
		return eris.Wrap(err, "postgres: delete token")
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrap(ErrNotFound, "token")
	}
	return nil
}
