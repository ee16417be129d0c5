package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/evmap/internal/convert"
	"github.com/sells-group/evmap/internal/fetcher"
	"github.com/sells-group/evmap/internal/geodata"
)

var (
	convertURL      string
	convertArchive  string
	convertOutput   string
	convertPolicy   string
	convertWorkDir  string
	convertDocument string
	convertJSON     bool
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert the KMZ export into the seed CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyConvertFlags()
		if err := cfg.Validate("convert"); err != nil {
			return err
		}

		if url := cfg.Convert.DownloadURL; url != "" {
			f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
				UserAgent:  cfg.Fetch.UserAgent,
				Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
				MaxRetries: cfg.Fetch.MaxRetries,
				Limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
			})
			if err := downloadArchive(ctx, f, url, cfg.Convert.ArchivePath); err != nil {
				return err
			}
		}

		c, err := convert.New(convert.Options{
			ArchivePath: cfg.Convert.ArchivePath,
			WorkDir:     cfg.Convert.WorkDir,
			Document:    cfg.Convert.Document,
			OutputPath:  cfg.Convert.OutputPath,
			Policy:      geodata.Policy(cfg.Convert.MalformedPolicy),
		})
		if err != nil {
			return err
		}

		res, err := c.Run(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if convertJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		fmt.Fprintf(out, "wrote %d rows from %d layers to %s", res.Stats.Rows, len(res.Layers), res.OutputPath)
		if res.Stats.Unparsed > 0 {
			fmt.Fprintf(out, " (%d without point geometry, %d dropped)", res.Stats.Unparsed, res.Stats.Dropped)
		}
		fmt.Fprintln(out)
		return nil
	},
}

// downloadArchive fetches the KMZ export to path, creating its directory.
func downloadArchive(ctx context.Context, f fetcher.Fetcher, url, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "convert: create archive directory")
	}
	n, err := f.DownloadToFile(ctx, url, path)
	if err != nil {
		return eris.Wrap(err, "convert: download archive")
	}
	zap.L().Info("archive downloaded",
		zap.String("url", url),
		zap.String("path", path),
		zap.Int64("bytes", n),
	)
	return nil
}

func applyConvertFlags() {
	if convertURL != "" {
		cfg.Convert.DownloadURL = convertURL
	}
	if convertArchive != "" {
		cfg.Convert.ArchivePath = convertArchive
	}
	if convertOutput != "" {
		cfg.Convert.OutputPath = convertOutput
	}
	if convertPolicy != "" {
		cfg.Convert.MalformedPolicy = convertPolicy
	}
	if convertWorkDir != "" {
		cfg.Convert.WorkDir = convertWorkDir
	}
	if convertDocument != "" {
		cfg.Convert.Document = convertDocument
	}
}

func init() {
	convertCmd.Flags().StringVar(&convertURL, "url", "", "download the KMZ from this URL before converting")
	convertCmd.Flags().StringVar(&convertArchive, "archive", "", "KMZ archive path (default from config)")
	convertCmd.Flags().StringVar(&convertOutput, "output", "", "CSV output path (default from config)")
	convertCmd.Flags().StringVar(&convertPolicy, "policy", "", "malformed geometry policy: emit, warn or drop")
	convertCmd.Flags().StringVar(&convertWorkDir, "work-dir", "", "keep extracted files in this directory")
	convertCmd.Flags().StringVar(&convertDocument, "document", "", "read only this KML document from the archive")
	convertCmd.Flags().BoolVar(&convertJSON, "json", false, "print the run summary as JSON")
	rootCmd.AddCommand(convertCmd)
}
