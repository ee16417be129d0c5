package kml

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// parseTuples parses a KML coordinates string: whitespace-separated
// "lon,lat[,alt]" tuples.
func parseTuples(s string) ([][]float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, eris.New("kml: empty coordinates")
	}
	tuples := make([][]float64, 0, len(fields))
	for _, field := range fields {
		parts := strings.Split(strings.Trim(field, ","), ",")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, eris.Errorf("kml: malformed coordinate tuple %q", field)
		}
		tuple := make([]float64, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return nil, eris.Wrapf(err, "kml: parse coordinate %q", field)
			}
			tuple[i] = v
		}
		tuples = append(tuples, tuple)
	}
	return tuples, nil
}

// layoutOf returns XYZ only when every tuple carries an altitude.
func layoutOf(groups ...[][]float64) geom.Layout {
	for _, tuples := range groups {
		for _, t := range tuples {
			if len(t) < 3 {
				return geom.XY
			}
		}
	}
	return geom.XYZ
}

func flatten(layout geom.Layout, tuples [][]float64) []float64 {
	stride := layout.Stride()
	flat := make([]float64, 0, len(tuples)*stride)
	for _, t := range tuples {
		flat = append(flat, t[:stride]...)
	}
	return flat
}

func pointGeom(p xmlPoint, layout geom.Layout) (geom.T, error) {
	tuples, err := parseTuples(p.Coordinates)
	if err != nil {
		return nil, err
	}
	if layout == geom.NoLayout {
		layout = layoutOf(tuples[:1])
	}
	return geom.NewPointFlat(layout, flatten(layout, tuples[:1])), nil
}

func lineStringGeom(l xmlLineString, layout geom.Layout) (geom.T, error) {
	tuples, err := parseTuples(l.Coordinates)
	if err != nil {
		return nil, err
	}
	if layout == geom.NoLayout {
		layout = layoutOf(tuples)
	}
	return geom.NewLineStringFlat(layout, flatten(layout, tuples)), nil
}

func polygonGeom(p xmlPolygon, layout geom.Layout) (geom.T, error) {
	rings := make([][][]float64, 0, 1+len(p.Inner))
	for _, coords := range append([]string{p.Outer}, p.Inner...) {
		tuples, err := parseTuples(coords)
		if err != nil {
			return nil, err
		}
		rings = append(rings, tuples)
	}
	if layout == geom.NoLayout {
		layout = layoutOf(rings...)
	}

	var flat []float64
	ends := make([]int, 0, len(rings))
	for _, ring := range rings {
		flat = append(flat, flatten(layout, ring)...)
		ends = append(ends, len(flat))
	}
	return geom.NewPolygonFlat(layout, flat, ends), nil
}

// multiGeomMembers flattens every member to XY so the collection has one layout.
func multiGeomMembers(m xmlMulti) ([]geom.T, error) {
	var members []geom.T
	for _, p := range m.Points {
		g, err := pointGeom(p, geom.XY)
		if err != nil {
			return nil, err
		}
		members = append(members, g)
	}
	for _, l := range m.LineStrings {
		g, err := lineStringGeom(l, geom.XY)
		if err != nil {
			return nil, err
		}
		members = append(members, g)
	}
	for _, p := range m.Polygons {
		g, err := polygonGeom(p, geom.XY)
		if err != nil {
			return nil, err
		}
		members = append(members, g)
	}
	return members, nil
}

// placemarkGeom returns the placemark's geometry, or nil if it has none.
func placemarkGeom(p xmlPlacemark) (geom.T, error) {
	switch {
	case p.Point != nil:
		return pointGeom(*p.Point, geom.NoLayout)
	case p.LineString != nil:
		return lineStringGeom(*p.LineString, geom.NoLayout)
	case p.Polygon != nil:
		return polygonGeom(*p.Polygon, geom.NoLayout)
	}
	return nil, nil
}

// geometryWKT renders the placemark's geometry as WKT. Points come out as
// "POINT (x y)" or "POINT Z (x y z)"; a MultiGeometry becomes a
// GEOMETRYCOLLECTION of its members.
func geometryWKT(p xmlPlacemark) (string, error) {
	if p.Point == nil && p.LineString == nil && p.Polygon == nil && p.MultiGeometry != nil {
		members, err := multiGeomMembers(*p.MultiGeometry)
		if err != nil {
			return "", err
		}
		parts := make([]string, 0, len(members))
		for _, g := range members {
			s, err := wkt.Marshal(g)
			if err != nil {
				return "", eris.Wrap(err, "kml: encode wkt")
			}
			parts = append(parts, s)
		}
		if len(parts) == 0 {
			return "GEOMETRYCOLLECTION EMPTY", nil
		}
		return "GEOMETRYCOLLECTION (" + strings.Join(parts, ", ") + ")", nil
	}

	g, err := placemarkGeom(p)
	if err != nil || g == nil {
		return "", err
	}
	s, err := wkt.Marshal(g)
	if err != nil {
		return "", eris.Wrap(err, "kml: encode wkt")
	}
	return s, nil
}
