package kml

import (
	"encoding/xml"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/evmap/internal/fetcher"
	"github.com/sells-group/evmap/internal/geodata"
)

type layer struct {
	name       string
	placemarks []xmlPlacemark
}

// Document is a decoded KML document split into layers. Every Folder is a
// layer named by its <name>; placemarks placed directly under the Document
// form a layer named after the Document.
type Document struct {
	path   string
	layers []layer
}

// Open reads and decodes the KML document at path. It fails with
// *geodata.LayerReadError wrapping ErrDriverDisabled if EnableDriver has not
// been called.
func Open(path string) (*Document, error) {
	if !DriverEnabled() {
		return nil, &geodata.LayerReadError{Document: path, Err: ErrDriverDisabled}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &geodata.LayerReadError{Document: path, Err: eris.Wrap(err, "kml: open document")}
	}
	defer f.Close() //nolint:errcheck

	return Decode(path, f)
}

// Decode decodes a KML document from r. name identifies the document in
// errors and names the fallback layer.
func Decode(name string, r io.Reader) (*Document, error) {
	if !DriverEnabled() {
		return nil, &geodata.LayerReadError{Document: name, Err: ErrDriverDisabled}
	}

	dec := xml.NewDecoder(r)
	dec.CharsetReader = fetcher.CharsetReader

	var root xmlRoot
	if err := dec.Decode(&root); err != nil {
		return nil, &geodata.LayerReadError{Document: name, Err: eris.Wrap(err, "kml: decode document")}
	}

	d := &Document{path: name}
	fallback := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if root.Document != nil {
		d.walkDocument(*root.Document, fallback)
	}
	if len(root.Placemarks) > 0 {
		d.addLayer(fallback, root.Placemarks)
	}
	for _, f := range root.Folders {
		d.walkFolder(f)
	}
	return d, nil
}

func (d *Document) walkDocument(c xmlContainer, fallback string) {
	if len(c.Placemarks) > 0 {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			name = fallback
		}
		d.addLayer(name, c.Placemarks)
	}
	for _, f := range c.Folders {
		d.walkFolder(f)
	}
	for _, sub := range c.Documents {
		d.walkDocument(sub, fallback)
	}
}

func (d *Document) walkFolder(c xmlContainer) {
	d.addLayer(strings.TrimSpace(c.Name), c.Placemarks)
	for _, f := range c.Folders {
		d.walkFolder(f)
	}
	for _, sub := range c.Documents {
		d.walkDocument(sub, "")
	}
}

// addLayer appends a layer, naming unnamed layers "Layer #N" and suffixing
// repeated names so every layer can be addressed by name.
func (d *Document) addLayer(name string, placemarks []xmlPlacemark) {
	if name == "" {
		name = fmt.Sprintf("Layer #%d", len(d.layers))
	}
	base := name
	for n := 2; d.hasLayer(name); n++ {
		name = fmt.Sprintf("%s #%d", base, n)
	}
	d.layers = append(d.layers, layer{name: name, placemarks: placemarks})
}

func (d *Document) hasLayer(name string) bool {
	return slices.ContainsFunc(d.layers, func(l layer) bool { return l.name == name })
}

// Path returns the document path or name given to Open or Decode.
func (d *Document) Path() string {
	return d.path
}

// Layers yields layer names in document order.
func (d *Document) Layers() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, l := range d.layers {
			if !yield(l.name) {
				return
			}
		}
	}
}

// LayerNames returns all layer names in document order.
func (d *Document) LayerNames() []string {
	return slices.Collect(d.Layers())
}

// ReadLayer returns the named layer's records. Placemarks whose coordinates
// cannot be parsed are kept with an empty geometry.
func (d *Document) ReadLayer(name string) (geodata.Layer, error) {
	idx := slices.IndexFunc(d.layers, func(l layer) bool { return l.name == name })
	if idx < 0 {
		return geodata.Layer{}, &geodata.LayerReadError{
			Document: d.path,
			Layer:    name,
			Err:      eris.New("kml: no such layer"),
		}
	}

	l := d.layers[idx]
	out := geodata.Layer{Name: l.name, Records: make([]geodata.GeoRecord, 0, len(l.placemarks))}
	for _, p := range l.placemarks {
		out.Records = append(out.Records, d.record(l.name, p))
	}
	return out, nil
}

func (d *Document) record(layerName string, p xmlPlacemark) geodata.GeoRecord {
	geometry, err := geometryWKT(p)
	if err != nil {
		zap.L().Debug("kml: unreadable placemark geometry",
			zap.String("document", d.path),
			zap.String("layer", layerName),
			zap.String("placemark", p.Name),
			zap.Error(err),
		)
	}

	return geodata.GeoRecord{
		Name:        strings.TrimSpace(p.Name),
		Description: strings.TrimSpace(p.Description),
		LayerName:   layerName,
		Geometry:    geometry,
		Extra:       extendedFields(p.ExtendedData),
	}
}

func extendedFields(ext *xmlExtendedData) []geodata.Field {
	if ext == nil {
		return nil
	}
	var fields []geodata.Field
	for _, data := range ext.Data {
		if data.Name == "" {
			continue
		}
		fields = append(fields, geodata.Field{Name: data.Name, Value: strings.TrimSpace(data.Value)})
	}
	for _, sd := range ext.SchemaData {
		for _, simple := range sd.SimpleData {
			if simple.Name == "" {
				continue
			}
			fields = append(fields, geodata.Field{Name: simple.Name, Value: strings.TrimSpace(simple.Value)})
		}
	}
	return fields
}
