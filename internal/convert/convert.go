// Package convert runs the KMZ to CSV conversion: extract the archive, read
// every layer of its KML documents, normalize point geometry, and write the
// seed CSV.
package convert

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/evmap/internal/geodata"
	"github.com/sells-group/evmap/internal/kml"
)

// Options configures a conversion run.
type Options struct {
	ArchivePath string
	// WorkDir receives the extracted files. When empty a temporary directory
	// is used and removed after the run.
	WorkDir string
	// Document restricts reading to the extracted document with this base
	// name. When empty every KML document in the archive is read.
	Document   string
	OutputPath string
	Policy     geodata.Policy
}

// LayerSummary reports one layer read during a run.
type LayerSummary struct {
	Document string `json:"document"`
	Name     string `json:"name"`
	Records  int    `json:"records"`
}

// Result summarizes a completed run.
type Result struct {
	OutputPath string            `json:"output_path"`
	Documents  []string          `json:"documents"`
	Layers     []LayerSummary    `json:"layers"`
	Stats      geodata.EmitStats `json:"stats"`
}

// Converter runs the conversion pipeline.
type Converter struct {
	opts    Options
	emitter *geodata.Emitter
}

// New validates opts and returns a Converter.
func New(opts Options) (*Converter, error) {
	if opts.ArchivePath == "" {
		return nil, eris.New("convert: archive path is required")
	}
	if opts.OutputPath == "" {
		return nil, eris.New("convert: output path is required")
	}
	policy, err := geodata.ParsePolicy(string(opts.Policy))
	if err != nil {
		return nil, err
	}
	opts.Policy = policy
	return &Converter{opts: opts, emitter: geodata.NewEmitter(policy)}, nil
}

// Run executes the pipeline. It stops at the first error; when extraction or
// layer reading fails, the output file is left untouched.
func (c *Converter) Run(ctx context.Context) (*Result, error) {
	log := zap.L().With(zap.String("archive", c.opts.ArchivePath))

	workDir := c.opts.WorkDir
	if workDir == "" {
		tmp, err := os.MkdirTemp("", "evmap-kmz-*")
		if err != nil {
			return nil, &geodata.ArchiveError{Path: c.opts.ArchivePath, Err: eris.Wrap(err, "convert: create work dir")}
		}
		defer os.RemoveAll(tmp) //nolint:errcheck
		workDir = tmp
	}

	docs, err := ExtractArchive(c.opts.ArchivePath, workDir)
	if err != nil {
		return nil, err
	}
	if c.opts.Document != "" {
		docs, err = selectDocument(c.opts.ArchivePath, docs, c.opts.Document)
		if err != nil {
			return nil, err
		}
	}
	log.Info("archive extracted", zap.String("work_dir", workDir), zap.Int("documents", len(docs)))

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "convert: cancelled")
	}

	res := &Result{OutputPath: c.opts.OutputPath}
	var layers []geodata.Layer
	for _, doc := range docs {
		docLayers, err := ReadLayers(doc)
		if err != nil {
			return nil, err
		}
		rel, _ := filepath.Rel(workDir, doc)
		res.Documents = append(res.Documents, rel)
		for _, l := range docLayers {
			res.Layers = append(res.Layers, LayerSummary{Document: rel, Name: l.Name, Records: l.Len()})
			log.Debug("layer read", zap.String("document", rel), zap.String("layer", l.Name), zap.Int("records", l.Len()))
		}
		layers = append(layers, docLayers...)
	}

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "convert: cancelled")
	}

	stats, err := c.emitter.WriteFile(c.opts.OutputPath, layers)
	if err != nil {
		return nil, err
	}
	res.Stats = stats

	log.Info("csv written",
		zap.String("output", c.opts.OutputPath),
		zap.Int("layers", len(layers)),
		zap.Int("rows", stats.Rows),
		zap.Int("unparsed", stats.Unparsed),
		zap.Int("dropped", stats.Dropped),
	)
	return res, nil
}

func selectDocument(archivePath string, docs []string, name string) ([]string, error) {
	for _, d := range docs {
		if filepath.Base(d) == name {
			return []string{d}, nil
		}
	}
	return nil, &geodata.ArchiveError{
		Path: archivePath,
		Err:  eris.Errorf("convert: document %q not found in archive", name),
	}
}

// ReadLayers opens a KML document and reads all of its layers in order.
func ReadLayers(path string) ([]geodata.Layer, error) {
	doc, err := kml.Open(path)
	if err != nil {
		return nil, err
	}

	var layers []geodata.Layer
	for name := range doc.Layers() {
		l, err := doc.ReadLayer(name)
		if err != nil {
			return nil, err
		}
		layers = append(layers, l)
	}
	return layers, nil
}
