// Package geodata holds the point-of-interest records produced from a KML
// document, the point normalizer, and the CSV emitter that writes the seed file.
package geodata

// Field is a single named attribute carried alongside a record, such as a
// value from a placemark's ExtendedData block.
type Field struct {
	Name  string
	Value string
}

// GeoRecord is one feature read from a layer. Geometry holds the feature's
// geometry as WKT text, e.g. "POINT Z (14.56 52.88 0)".
type GeoRecord struct {
	Name        string
	Description string
	LayerName   string
	Geometry    string
	Extra       []Field
}

// Layer is an ordered set of records sharing one layer name.
type Layer struct {
	Name    string
	Records []GeoRecord
}

// Len returns the number of records in the layer.
func (l Layer) Len() int {
	return len(l.Records)
}

// NormalizedRecord is a GeoRecord with its geometry decomposed into
// coordinates and a derived Google Maps link.
type NormalizedRecord struct {
	Name        string
	Description string
	LayerName   string
	Extra       []Field
	Coordinates Coordinates
	MapsLink    string
}

// Combine concatenates layers in order, preserving record order within each layer.
func Combine(layers []Layer) []GeoRecord {
	n := 0
	for _, l := range layers {
		n += len(l.Records)
	}
	out := make([]GeoRecord, 0, n)
	for _, l := range layers {
		out = append(out, l.Records...)
	}
	return out
}
