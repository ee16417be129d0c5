package kml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeometryWKT(t *testing.T) {
	tests := []struct {
		name string
		p    xmlPlacemark
		want string
	}{
		{
			name: "point xy",
			p:    xmlPlacemark{Point: &xmlPoint{Coordinates: "14.56,52.88"}},
			want: "POINT (14.56 52.88)",
		},
		{
			name: "point xyz",
			p:    xmlPlacemark{Point: &xmlPoint{Coordinates: " 14.56,52.88,12 "}},
			want: "POINT Z (14.56 52.88 12)",
		},
		{
			name: "linestring mixed layout falls back to xy",
			p:    xmlPlacemark{LineString: &xmlLineString{Coordinates: "1,2,3 4,5"}},
			want: "LINESTRING (1 2, 4 5)",
		},
		{
			name: "polygon",
			p: xmlPlacemark{Polygon: &xmlPolygon{
				Outer: "0,0 1,0 1,1 0,0",
			}},
			want: "POLYGON ((0 0, 1 0, 1 1, 0 0))",
		},
		{
			name: "no geometry",
			p:    xmlPlacemark{Name: "bare"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := geometryWKT(tt.p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGeometryWKT_MultiGeometry(t *testing.T) {
	got, err := geometryWKT(xmlPlacemark{MultiGeometry: &xmlMulti{
		Points:      []xmlPoint{{Coordinates: "1,2,0"}},
		LineStrings: []xmlLineString{{Coordinates: "1,2 3,4"}},
	}})
	require.NoError(t, err)
	assert.Equal(t, "GEOMETRYCOLLECTION (POINT (1 2), LINESTRING (1 2, 3 4))", got)
}

func TestParseTuples_Errors(t *testing.T) {
	_, err := parseTuples("")
	require.Error(t, err)

	_, err = parseTuples("1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed coordinate tuple")

	_, err = parseTuples("1,2,3,4")
	require.Error(t, err)

	_, err = parseTuples("a,b")
	require.Error(t, err)
}
