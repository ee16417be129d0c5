package store

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/sells-group/evmap/internal/model"
)

// pointEWKB encodes a location's coordinates as an EWKB point with SRID 4326
// so the geom column can be read directly by GIS tools. Locations without
// coordinates encode as nil.
func pointEWKB(loc *model.Location) ([]byte, error) {
	if !loc.HasCoordinates() {
		return nil, nil
	}
	p := geom.NewPointFlat(geom.XY, []float64{*loc.Longitude, *loc.Latitude}).SetSRID(4326)
	data, err := ewkb.Marshal(p, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "store: encode point")
	}
	return data, nil
}

// nullable turns an empty encoding into a NULL parameter.
func nullable(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}

func floatPtr(valid bool, f float64) *float64 {
	if !valid {
		return nil
	}
	return &f
}
