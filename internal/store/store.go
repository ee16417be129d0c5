// Package store persists locations and write tokens.
package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/evmap/internal/model"
)

// ErrNotFound is returned when a location or token does not exist.
var ErrNotFound = eris.New("store: not found")

// LocationFilter specifies criteria for listing locations.
type LocationFilter struct {
	Type   string `json:"type,omitempty"`
	Query  string `json:"q,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// limit clamps the requested page size.
func (f LocationFilter) limit() int {
	switch {
	case f.Limit <= 0:
		return defaultListLimit
	case f.Limit > maxListLimit:
		return maxListLimit
	}
	return f.Limit
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns a search term into a LIKE pattern matching it as a
// literal substring. Callers pair it with ESCAPE '\'.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

// Store defines the persistence interface for the map application.
type Store interface {
	// Locations
	CreateLocation(ctx context.Context, loc *model.Location) error
	GetLocation(ctx context.Context, id int64) (*model.Location, error)
	ListLocations(ctx context.Context, filter LocationFilter) ([]model.Location, error)
	UpdateLocation(ctx context.Context, loc *model.Location) error
	DeleteLocation(ctx context.Context, id int64) error
	ListTypes(ctx context.Context) ([]model.TypeCount, error)

	// SeedLocations bulk-inserts locations, optionally emptying the table first.
	SeedLocations(ctx context.Context, locs []model.Location, truncate bool) (int64, error)

	// Tokens
	CreateToken(ctx context.Context, tok *model.Token) error
	TokenExists(ctx context.Context, value string) (bool, error)
	ListTokens(ctx context.Context) ([]model.Token, error)
	DeleteToken(ctx context.Context, value string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
