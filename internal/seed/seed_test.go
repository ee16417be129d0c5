package seed

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/evmap/internal/geodata"
	"github.com/sells-group/evmap/internal/store"
)

func emittedCSV(t *testing.T) []byte {
	t.Helper()
	layers := []geodata.Layer{
		{Name: "Superchargers", Records: []geodata.GeoRecord{
			{Name: "Acme EV", Description: "8 stalls", LayerName: "Superchargers", Geometry: "POINT (14.56 52.88)"},
		}},
		{Name: "Hotels", Records: []geodata.GeoRecord{
			{Name: "Hotel Wien", Description: "garage", LayerName: "Hotels", Geometry: "POINT Z (16 48 0)",
				Extra: []geodata.Field{{Name: "stars", Value: "4"}}},
			{Name: "Scenic route", LayerName: "Hotels", Geometry: "LINESTRING (1 2, 3 4)"},
		}},
	}
	var buf bytes.Buffer
	_, err := geodata.NewEmitter(geodata.PolicyEmit).Write(&buf, layers)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseLocations_EmittedCSV(t *testing.T) {
	locs, err := ParseLocations(context.Background(), bytes.NewReader(emittedCSV(t)))
	require.NoError(t, err)
	require.Len(t, locs, 3)

	acme := locs[0]
	assert.Equal(t, "Acme EV", acme.Name)
	assert.Equal(t, "Superchargers", acme.Type)
	assert.Equal(t, "8 stalls", acme.Description)
	require.True(t, acme.HasCoordinates())
	assert.InDelta(t, 14.56, *acme.Longitude, 1e-9)
	assert.InDelta(t, 52.88, *acme.Latitude, 1e-9)
	assert.Equal(t, "https://www.google.com/maps/place/52.88,14.56", acme.MapsLink)

	assert.Equal(t, "Hotels", locs[1].Type)
	assert.InDelta(t, 16.0, *locs[1].Longitude, 1e-9)

	route := locs[2]
	assert.Equal(t, "Scenic route", route.Name)
	assert.Nil(t, route.Longitude)
	assert.Nil(t, route.Latitude)
	assert.Empty(t, route.MapsLink)
}

func TestParseLocations_ColumnOrderIndependent(t *testing.T) {
	in := "Maps link,latitude,longitude,Description,layer_name,Name\n" +
		"link,52.5,13.4,desc,Hotels,Hotel Berlin\n"

	locs, err := ParseLocations(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "Hotel Berlin", locs[0].Name)
	assert.Equal(t, "Hotels", locs[0].Type)
	assert.InDelta(t, 13.4, *locs[0].Longitude, 1e-9)
	assert.InDelta(t, 52.5, *locs[0].Latitude, 1e-9)
}

func TestParseLocations_BOMHeader(t *testing.T) {
	in := "\ufeffName,layer_name,Description,longitude,latitude,Maps link\n" +
		"a,b,c,,,\n"

	locs, err := ParseLocations(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "a", locs[0].Name)
}

func TestParseLocations_MissingHeader(t *testing.T) {
	in := "Name,Description,longitude,latitude,Maps link\n" +
		"a,c,1,2,\n"

	_, err := ParseLocations(context.Background(), strings.NewReader(in))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingHeader))
	assert.Contains(t, err.Error(), "layer_name")
}

func TestParseLocations_HeaderOnly(t *testing.T) {
	in := "Name,layer_name,Description,longitude,latitude,Maps link\n"

	locs, err := ParseLocations(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	assert.Empty(t, locs)
}

func TestParseLocations_Empty(t *testing.T) {
	_, err := ParseLocations(context.Background(), strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrMissingHeader))
}

func TestParseLocations_BadCoordinate(t *testing.T) {
	in := "Name,layer_name,Description,longitude,latitude,Maps link\n" +
		"a,b,c,east,2,\n"

	_, err := ParseLocations(context.Background(), strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "longitude")
}

func TestLoad_SQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "seed.csv")
	require.NoError(t, os.WriteFile(csvPath, emittedCSV(t), 0o644))

	st, err := store.NewSQLite(filepath.Join(dir, "evmap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(ctx))

	n, err := Load(ctx, st, csvPath, false)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = Load(ctx, st, csvPath, true)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	locs, err := st.ListLocations(ctx, store.LocationFilter{})
	require.NoError(t, err)
	assert.Len(t, locs, 3)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), nil, filepath.Join(t.TempDir(), "nope.csv"), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed: open")
}
