package convert

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/evmap/internal/fetcher"
	"github.com/sells-group/evmap/internal/geodata"
)

// DefaultDocument is the root document name inside a KMZ archive.
const DefaultDocument = "doc.kml"

// ExtractArchive unpacks a KMZ archive into destDir and returns the paths of
// the KML documents it contained, with doc.kml first when present. Any failure,
// including an archive with no KML document, is an *geodata.ArchiveError.
func ExtractArchive(archivePath, destDir string) ([]string, error) {
	extracted, err := fetcher.ExtractZIP(archivePath, destDir)
	if err != nil {
		return nil, &geodata.ArchiveError{Path: archivePath, Err: err}
	}

	var docs []string
	for _, p := range extracted {
		if strings.EqualFold(filepath.Ext(p), ".kml") {
			docs = append(docs, p)
		}
	}
	if len(docs) == 0 {
		return nil, &geodata.ArchiveError{Path: archivePath, Err: eris.New("convert: archive contains no KML document")}
	}

	// Stable sort keeps archive order for everything except the root document.
	slices.SortStableFunc(docs, func(a, b string) int {
		aRoot := filepath.Base(a) == DefaultDocument
		bRoot := filepath.Base(b) == DefaultDocument
		switch {
		case aRoot && !bRoot:
			return -1
		case bRoot && !aRoot:
			return 1
		}
		return 0
	})
	return docs, nil
}
