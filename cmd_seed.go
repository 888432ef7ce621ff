package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/Zephony/zephony-go/controller"
	"github.com/Zephony/zephony-go/handler"
	"github.com/Zephony/zephony-go/models"
	"github.com/Zephony/zephony-go/util"
)

// SeedManifest lists the CSV or XLSX files to load, in order
type SeedManifest struct {
	Files []SeedFile `yaml:"files"`
}

type SeedFile struct {
	Model     string `yaml:"model"`
	Path      string `yaml:"path"`
	Delimiter string `yaml:"delimiter"`
	Sheet     string `yaml:"sheet"`
	NoHeader  bool   `yaml:"no_header"`
	RowCommit bool   `yaml:"row_commit"`
}

// seedSummary is what one manifest entry produced
type seedSummary struct {
	Model      string
	Path       string
	Rows       int
	Created    int
	Duplicates int
	Rejected   int
	Failed     error
}

type seeder func(ctx context.Context, db *gorm.DB, path string, opts ...controller.LoadOption) (seedSummary, error)

func loaderFor[T any](columns controller.Columns) seeder {
	return func(ctx context.Context, db *gorm.DB, path string, opts ...controller.LoadOption) (seedSummary, error) {
		res, err := controller.NewRepository[T](db, nil).LoadFromFile(ctx, path, columns, opts...)
		if err != nil {
			return seedSummary{}, err
		}
		return seedSummary{
			Rows:       res.TotalNonEmptyRows,
			Created:    len(res.Objects),
			Duplicates: len(res.Duplicates),
			Rejected:   len(res.Rejected),
			Failed:     res.Failed,
		}, nil
	}
}

// seeders are the models a manifest may name
var seeders = map[string]seeder{
	"cities":   loaderFor[models.City](controller.Columns{"original_name": controller.Col(1)}),
	"contacts": loaderFor[models.Contact](handler.ContactColumns),
}

func readManifest(path string) (*SeedManifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m SeedManifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	base := filepath.Dir(path)
	for i, f := range m.Files {
		if _, ok := seeders[f.Model]; !ok {
			return nil, fmt.Errorf("files[%d]: unknown model %q", i, f.Model)
		}
		if f.Path == "" {
			return nil, fmt.Errorf("files[%d]: path is required", i)
		}
		if ext := util.FileExtension(f.Path); !util.IsAllowedFile(f.Path, "csv", "xlsx") {
			return nil, fmt.Errorf("files[%d]: unsupported file type %q", i, ext)
		}
		if utf8.RuneCountInString(f.Delimiter) > 1 {
			return nil, fmt.Errorf("files[%d]: delimiter must be a single character", i)
		}
		if !filepath.IsAbs(f.Path) {
			m.Files[i].Path = filepath.Join(base, f.Path)
		}
	}
	return &m, nil
}

// seed loads every manifest entry and stops at the first failing file
func seed(ctx context.Context, db *gorm.DB, m *SeedManifest) ([]seedSummary, error) {
	summaries := make([]seedSummary, 0, len(m.Files))
	for _, f := range m.Files {
		var opts []controller.LoadOption
		if f.Delimiter != "" {
			d, _ := utf8.DecodeRuneInString(f.Delimiter)
			opts = append(opts, controller.WithCSVDelimiter(d))
		}
		if f.Sheet != "" {
			opts = append(opts, controller.WithSheet(f.Sheet))
		}
		if f.NoHeader {
			opts = append(opts, controller.WithoutHeader())
		}
		if f.RowCommit {
			opts = append(opts, controller.WithRowCommit())
		}

		s, err := seeders[f.Model](ctx, db, f.Path, opts...)
		if err != nil {
			return summaries, fmt.Errorf("seed %s from %s: %w", f.Model, f.Path, err)
		}
		s.Model, s.Path = f.Model, f.Path
		zap.L().Info("seeded",
			zap.String("model", s.Model),
			zap.String("path", s.Path),
			zap.Int("created", s.Created),
			zap.Int("duplicates", s.Duplicates))
		summaries = append(summaries, s)
	}
	return summaries, nil
}

var seedCmd = &cobra.Command{
	Use:   "seed <manifest.yaml>",
	Short: "Load CSV or XLSX files listed in a YAML manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manifest, err := readManifest(args[0])
		if err != nil {
			return err
		}
		_, logger, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		summaries, err := seed(cmd.Context(), db, manifest)
		for _, s := range summaries {
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s %-40s rows=%d created=%d duplicates=%d rejected=%d\n",
				s.Model, s.Path, s.Rows, s.Created, s.Duplicates, s.Rejected)
			if s.Failed != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "  failed: %v\n", s.Failed)
			}
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
