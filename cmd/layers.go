package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/evmap/internal/convert"
	"github.com/sells-group/evmap/internal/kml"
)

var layersArchive string

var layersCmd = &cobra.Command{
	Use:   "layers",
	Short: "List the layers of each KML document in the archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		if layersArchive != "" {
			cfg.Convert.ArchivePath = layersArchive
		}
		if err := cfg.Validate("layers"); err != nil {
			return err
		}

		dir, err := os.MkdirTemp("", "evmap-layers-*")
		if err != nil {
			return eris.Wrap(err, "layers: create work dir")
		}
		defer os.RemoveAll(dir) //nolint:errcheck

		docs, err := convert.ExtractArchive(cfg.Convert.ArchivePath, dir)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, path := range docs {
			doc, err := kml.Open(path)
			if err != nil {
				return err
			}
			rel, _ := filepath.Rel(dir, path)
			fmt.Fprintln(out, rel)
			for name := range doc.Layers() {
				l, err := doc.ReadLayer(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "  %s\t%d\n", name, l.Len())
			}
		}
		return nil
	},
}

func init() {
	layersCmd.Flags().StringVar(&layersArchive, "archive", "", "KMZ archive path (default from config)")
	rootCmd.AddCommand(layersCmd)
}
