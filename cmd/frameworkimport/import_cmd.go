package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/neurobridge-frameworks/internal/app"
	frameworksmod "github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks"
	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/materialize"
)

type importOptions struct {
	profile     string
	idNumber    string
	shortName   string
	description string
	visible     bool
	atomic      bool
	dryRun      bool
	concurrency int
}

type fileResult struct {
	File    string                       `json:"file"`
	Import  *frameworksmod.ImportOutput  `json:"import,omitempty"`
	Preview *frameworksmod.PreviewOutput `json:"preview,omitempty"`
	Error   string                       `json:"error,omitempty"`
}

type importOutput struct {
	Command    string       `json:"command"`
	DurationMS int64        `json:"duration_ms"`
	Results    []fileResult `json:"results"`
}

// importer is the slice of the frameworks usecases the command needs.
type importer interface {
	Import(ctx context.Context, in frameworksmod.ImportInput) (frameworksmod.ImportOutput, error)
	Preview(ctx context.Context, in frameworksmod.PreviewInput) (frameworksmod.PreviewOutput, error)
}

func newImportCmd() *cobra.Command {
	opts := importOptions{}

	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import one framework per file; files run in parallel, writes within a file stay sequential",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			start := time.Now()
			results, err := runImports(cmd.Context(), a.Frameworks.WithLog(a.Log.Named("cli")), args, opts)
			out := importOutput{
				Command:    "import",
				DurationMS: time.Since(start).Milliseconds(),
				Results:    results,
			}
			if werr := writeJSON(cmd.OutOrStdout(), out); werr != nil {
				return werr
			}
			return err
		},
	}

	cmd.Flags().StringVar(&opts.profile, "profile", "", "Import profile (default from profiles.yaml)")
	cmd.Flags().StringVar(&opts.idNumber, "idnumber", "", "Framework idnumber; suffixed with the file name when importing several files")
	cmd.Flags().StringVar(&opts.shortName, "shortname", "", "Framework short name (defaults to the idnumber)")
	cmd.Flags().StringVar(&opts.description, "description", "", "Framework description")
	cmd.Flags().BoolVar(&opts.visible, "visible", true, "Mark the framework visible")
	cmd.Flags().BoolVar(&opts.atomic, "atomic", false, "Write each framework in one transaction")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Parse and sanitise only; nothing is written")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 4, "Files imported in parallel")
	return cmd
}

func runImports(ctx context.Context, uc importer, files []string, opts importOptions) ([]fileResult, error) {
	if opts.concurrency < 1 {
		opts.concurrency = 1
	}
	results := make([]fileResult, len(files))
	var (
		mu   sync.Mutex
		errs []error
	)

	g := new(errgroup.Group)
	g.SetLimit(opts.concurrency)
	for i, file := range files {
		g.Go(func() error {
			res, err := runOne(ctx, uc, file, containerFor(file, len(files), opts), opts)
			if err != nil {
				res.Error = err.Error()
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", file, err))
				mu.Unlock()
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results, errors.Join(errs...)
}

func runOne(ctx context.Context, uc importer, file string, cfg materialize.ContainerConfig, opts importOptions) (fileResult, error) {
	res := fileResult{File: file}
	f, err := os.Open(file)
	if err != nil {
		return res, err
	}
	defer f.Close()

	if opts.dryRun {
		out, err := uc.Preview(ctx, frameworksmod.PreviewInput{Document: f, Profile: opts.profile})
		if err != nil {
			return res, err
		}
		out.Roots = nil
		res.Preview = &out
		return res, nil
	}
	out, err := uc.Import(ctx, frameworksmod.ImportInput{
		Document:   f,
		SourceName: filepath.Base(file),
		Profile:    opts.profile,
		Container:  cfg,
		Atomic:     opts.atomic,
	})
	res.Import = &out
	return res, err
}

// containerFor derives the framework of one file. Several files never share an idnumber.
func containerFor(file string, total int, opts importOptions) materialize.ContainerConfig {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	idn := strings.TrimSpace(opts.idNumber)
	switch {
	case idn == "":
		idn = base
	case total > 1:
		idn = idn + "-" + base
	}
	short := strings.TrimSpace(opts.shortName)
	if short == "" {
		short = idn
	} else if total > 1 {
		short = short + " (" + base + ")"
	}
	return materialize.ContainerConfig{
		ShortName:   short,
		IDNumber:    idn,
		Description: opts.description,
		Visible:     opts.visible,
	}
}
