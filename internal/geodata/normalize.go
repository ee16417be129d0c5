package geodata

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// MapsPlaceURL is the Google Maps place link prefix; latitude comes first.
const MapsPlaceURL = "https://www.google.com/maps/place/"

const wktNumber = `[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`

// pointPattern matches "POINT (x y)" and "POINT Z (x y z)" anywhere in the
// input. The optional third ordinate is matched but not captured. MULTIPOINT
// is excluded by the word boundary.
var pointPattern = regexp.MustCompile(
	`\bPOINT\s*(?:Z\s*)?\(\s*(` + wktNumber + `)\s+(` + wktNumber + `)(?:\s+` + wktNumber + `)?\s*\)`,
)

// Coordinates is the result of parsing a point geometry: either a parsed
// longitude/latitude pair or the raw text that failed to parse.
type Coordinates struct {
	Longitude float64
	Latitude  float64
	Parsed    bool
	Raw       string
}

// ParsedCoordinates returns a parsed longitude/latitude pair.
func ParsedCoordinates(lon, lat float64) Coordinates {
	return Coordinates{Longitude: lon, Latitude: lat, Parsed: true}
}

// UnparsedCoordinates returns coordinates carrying the raw text that did not match.
func UnparsedCoordinates(raw string) Coordinates {
	return Coordinates{Raw: raw}
}

// ParsePoint extracts longitude and latitude from WKT point text. Any z
// ordinate is discarded. Text that is not a point, or whose ordinates are not
// finite numbers, yields Unparsed.
func ParsePoint(text string) Coordinates {
	loc := pointPattern.FindStringSubmatchIndex(text)
	if loc == nil || nested(text[:loc[0]]) {
		return UnparsedCoordinates(text)
	}
	m := []string{text[loc[0]:loc[1]], text[loc[2]:loc[3]], text[loc[4]:loc[5]]}
	lon, err := strconv.ParseFloat(m[1], 64)
	if err != nil || !finite(lon) {
		return UnparsedCoordinates(text)
	}
	lat, err := strconv.ParseFloat(m[2], 64)
	if err != nil || !finite(lat) {
		return UnparsedCoordinates(text)
	}
	return ParsedCoordinates(lon, lat)
}

// nested reports whether prefix leaves a parenthesis open, meaning the point
// that follows is a member of a collection rather than the geometry itself.
func nested(prefix string) bool {
	return strings.Count(prefix, "(") > strings.Count(prefix, ")")
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// FormatCoord renders a coordinate the way the seed file has always carried
// them: shortest round-trip digits, with ".0" kept on integral values and
// exponent form once the decimal exponent drops below -4 or reaches 16.
func FormatCoord(f float64) string {
	if f != 0 && finite(f) {
		e := strconv.FormatFloat(f, 'e', -1, 64)
		exp, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
		if exp < -4 || exp >= 16 {
			return e
		}
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// MapsLink builds the Google Maps place URL for a coordinate pair.
func MapsLink(lat, lon float64) string {
	return MapsPlaceURL + FormatCoord(lat) + "," + FormatCoord(lon)
}

// Normalize decomposes a record's geometry into coordinates and derives its
// maps link. It never fails; unparsed geometry leaves MapsLink empty.
func Normalize(rec GeoRecord) NormalizedRecord {
	out := NormalizedRecord{
		Name:        rec.Name,
		Description: rec.Description,
		LayerName:   rec.LayerName,
		Extra:       rec.Extra,
		Coordinates: ParsePoint(rec.Geometry),
	}
	if out.Coordinates.Parsed {
		out.MapsLink = MapsLink(out.Coordinates.Latitude, out.Coordinates.Longitude)
	}
	return out
}
