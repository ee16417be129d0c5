package geodata

import "fmt"

// ArchiveError reports a missing or corrupt archive, or an extraction
// destination that cannot be written.
type ArchiveError struct {
	Path string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive %s: %v", e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// LayerReadError reports a document or layer that cannot be opened or parsed.
type LayerReadError struct {
	Document string
	Layer    string
	Err      error
}

func (e *LayerReadError) Error() string {
	if e.Layer == "" {
		return fmt.Sprintf("read %s: %v", e.Document, e.Err)
	}
	return fmt.Sprintf("read %s layer %q: %v", e.Document, e.Layer, e.Err)
}

func (e *LayerReadError) Unwrap() error { return e.Err }

// WriteError reports a failure writing the output CSV.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
