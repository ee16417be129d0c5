// Package seed loads the converted CSV into the location store.
package seed

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/evmap/internal/fetcher"
	"github.com/sells-group/evmap/internal/geodata"
	"github.com/sells-group/evmap/internal/model"
	"github.com/sells-group/evmap/internal/store"
)

// ErrMissingHeader is returned when the CSV lacks a required column.
var ErrMissingHeader = eris.New("seed: missing required column")

var requiredColumns = []string{
	geodata.ColumnName,
	geodata.ColumnLayer,
	geodata.ColumnDescription,
	geodata.ColumnLongitude,
	geodata.ColumnLatitude,
	geodata.ColumnMapsLink,
}

// columns maps the seed file's header keys to row indexes.
type columns map[string]int

func indexHeader(header []string) (columns, error) {
	cols := make(columns, len(header))
	for i, h := range header {
		// Spreadsheet exports sometimes prefix the first cell with a BOM.
		h = strings.TrimPrefix(h, "\ufeff")
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, eris.Wrapf(ErrMissingHeader, "%q", name)
		}
	}
	return cols, nil
}

func (c columns) get(row []string, name string) string {
	i := c[name]
	if i >= len(row) {
		return ""
	}
	return row[i]
}

// Load reads the CSV at path and bulk-inserts it. When truncate is set the
// existing locations are replaced.
func Load(ctx context.Context, st store.Store, path string, truncate bool) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, eris.Wrapf(err, "seed: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	locs, err := ParseLocations(ctx, f)
	if err != nil {
		return 0, eris.Wrapf(err, "seed: parse %s", path)
	}

	n, err := st.SeedLocations(ctx, locs, truncate)
	if err != nil {
		return 0, err
	}

	zap.L().Info("seed: locations loaded",
		zap.String("path", path),
		zap.Int64("rows", n),
		zap.Bool("truncate", truncate),
	)
	return n, nil
}

// ParseLocations maps seed CSV rows onto locations. Column lookup is by
// literal header key; empty coordinates become nil.
func ParseLocations(ctx context.Context, r io.Reader) ([]model.Location, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
	})

	var (
		cols columns
		locs []model.Location
		line = 1
	)
	for row := range rowCh {
		line++
		if cols == nil {
			var err error
			if cols, err = indexHeader(<-headerCh); err != nil {
				return nil, err
			}
		}

		loc, err := rowLocation(cols, row)
		if err != nil {
			return nil, eris.Wrapf(err, "line %d", line)
		}
		locs = append(locs, loc)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}

	if cols == nil {
		select {
		case header := <-headerCh:
			if _, err := indexHeader(header); err != nil {
				return nil, err
			}
		default:
			return nil, eris.Wrap(ErrMissingHeader, "empty file")
		}
	}
	return locs, nil
}

func rowLocation(cols columns, row []string) (model.Location, error) {
	loc := model.Location{
		Name:        cols.get(row, geodata.ColumnName),
		Type:        cols.get(row, geodata.ColumnLayer),
		Description: cols.get(row, geodata.ColumnDescription),
		MapsLink:    cols.get(row, geodata.ColumnMapsLink),
	}

	var err error
	if loc.Longitude, err = parseCoord(cols.get(row, geodata.ColumnLongitude)); err != nil {
		return loc, eris.Wrap(err, "longitude")
	}
	if loc.Latitude, err = parseCoord(cols.get(row, geodata.ColumnLatitude)); err != nil {
		return loc, eris.Wrap(err, "latitude")
	}
	return loc, nil
}

func parseCoord(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "parse %q", s)
	}
	return &f, nil
}
