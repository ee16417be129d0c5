package geodata

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Seed file column names. The seeding routine looks these up by literal key.
const (
	ColumnName        = "Name"
	ColumnLayer       = "layer_name"
	ColumnDescription = "Description"
	ColumnLongitude   = "longitude"
	ColumnLatitude    = "latitude"
	ColumnMapsLink    = "Maps link"
)

var reservedColumns = map[string]bool{
	ColumnName:        true,
	ColumnLayer:       true,
	ColumnDescription: true,
	ColumnLongitude:   true,
	ColumnLatitude:    true,
	ColumnMapsLink:    true,
	"geometry":        true,
}

// Policy decides what the emitter does with records whose geometry did not
// parse as a point.
type Policy string

const (
	// PolicyEmit writes the row with empty coordinate and link fields.
	PolicyEmit Policy = "emit"
	// PolicyWarn writes the row like PolicyEmit and logs a warning.
	PolicyWarn Policy = "warn"
	// PolicyDrop skips the row and logs a warning.
	PolicyDrop Policy = "drop"
)

// ParsePolicy validates a policy name. The empty string means PolicyEmit.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyEmit:
		return PolicyEmit, nil
	case PolicyWarn, PolicyDrop:
		return Policy(s), nil
	}
	return "", eris.Errorf("geodata: unknown malformed geometry policy %q (want emit, warn or drop)", s)
}

// EmitStats summarizes a write.
type EmitStats struct {
	Rows     int
	Unparsed int
	Dropped  int
}

// Emitter writes combined layers as the seed CSV.
type Emitter struct {
	Policy Policy
}

// NewEmitter returns an Emitter using the given malformed geometry policy.
func NewEmitter(policy Policy) *Emitter {
	if policy == "" {
		policy = PolicyEmit
	}
	return &Emitter{Policy: policy}
}

// Header returns the output columns for the given layers: the fixed leading
// columns, any extra columns in first-seen order, then the coordinate columns.
func Header(layers []Layer) []string {
	header := []string{ColumnName, ColumnLayer, ColumnDescription}
	seen := make(map[string]bool)
	for _, l := range layers {
		for _, rec := range l.Records {
			for _, f := range rec.Extra {
				if reservedColumns[f.Name] || seen[f.Name] {
					continue
				}
				seen[f.Name] = true
				header = append(header, f.Name)
			}
		}
	}
	return append(header, ColumnLongitude, ColumnLatitude, ColumnMapsLink)
}

// Write concatenates layers in order and writes them as CSV with a header row.
func (e *Emitter) Write(w io.Writer, layers []Layer) (EmitStats, error) {
	var stats EmitStats
	header := Header(layers)
	extraCols := header[3 : len(header)-3]

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return stats, eris.Wrap(err, "csv: write header")
	}

	for _, rec := range Combine(layers) {
		n := Normalize(rec)
		if !n.Coordinates.Parsed {
			stats.Unparsed++
			switch e.Policy {
			case PolicyDrop:
				stats.Dropped++
				zap.L().Warn("geodata: dropping record with unparsed geometry",
					zap.String("name", n.Name),
					zap.String("layer", n.LayerName),
					zap.String("geometry", n.Coordinates.Raw),
				)
				continue
			case PolicyWarn:
				zap.L().Warn("geodata: record has unparsed geometry",
					zap.String("name", n.Name),
					zap.String("layer", n.LayerName),
					zap.String("geometry", n.Coordinates.Raw),
				)
			}
		}

		if err := cw.Write(recordRow(n, extraCols)); err != nil {
			return stats, eris.Wrap(err, "csv: write row")
		}
		stats.Rows++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return stats, eris.Wrap(err, "csv: flush")
	}
	return stats, nil
}

func recordRow(n NormalizedRecord, extraCols []string) []string {
	row := make([]string, 0, len(extraCols)+6)
	row = append(row, n.Name, n.LayerName, n.Description)

	for _, col := range extraCols {
		row = append(row, lookupField(n.Extra, col))
	}

	if n.Coordinates.Parsed {
		row = append(row,
			FormatCoord(n.Coordinates.Longitude),
			FormatCoord(n.Coordinates.Latitude),
			n.MapsLink,
		)
	} else {
		row = append(row, "", "", "")
	}
	return row
}

func lookupField(fields []Field, name string) string {
	for _, f := range fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// WriteFile writes the CSV to path, replacing any existing file. The data is
// written to a temporary file in the same directory and renamed into place.
// Failures are returned as *WriteError.
func (e *Emitter) WriteFile(path string, layers []Layer) (EmitStats, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return EmitStats{}, &WriteError{Path: path, Err: eris.Wrap(err, "create output directory")}
	}

	tmp, err := os.CreateTemp(dir, ".evmap-*.csv")
	if err != nil {
		return EmitStats{}, &WriteError{Path: path, Err: eris.Wrap(err, "create temp file")}
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	stats, err := e.Write(tmp, layers)
	if err != nil {
		_ = tmp.Close()
		return stats, &WriteError{Path: path, Err: err}
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return stats, &WriteError{Path: path, Err: eris.Wrap(err, "chmod temp file")}
	}
	if err := tmp.Close(); err != nil {
		return stats, &WriteError{Path: path, Err: eris.Wrap(err, "close temp file")}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return stats, &WriteError{Path: path, Err: eris.Wrap(err, "rename into place")}
	}
	return stats, nil
}
