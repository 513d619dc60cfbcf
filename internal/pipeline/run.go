// Package pipeline drives a consent form build across every site of a
// mapping.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/consent-builder/internal/logger"
	"github.com/jonathan/consent-builder/internal/mapping"
	"github.com/jonathan/consent-builder/internal/overrides"
)

// Writer stores the generated document for a site and returns where it went.
type Writer interface {
	Write(site mapping.Site, document string) (string, error)
}

// ProgressEvent represents a progress update during a build
type ProgressEvent struct {
	RunID   string                  `json:"run_id"`
	Site    string                  `json:"site"`
	Path    string                  `json:"path"`
	DryRun  bool                    `json:"dry_run,omitempty"`
	Reports []overrides.FieldReport `json:"reports,omitempty"`
}

// ProgressCallback is called after each site's document has been handed to
// the writer
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for one build
type RunOptions struct {
	Template string
	Sites    []mapping.Site
	Policy   *overrides.Policy
	Writer   Writer
	// Workers bounds how many site documents are computed at once. Values
	// below 2 compute them one after another.
	Workers    int
	DryRun     bool
	OnProgress ProgressCallback
}

// SiteResult is the outcome for one site.
type SiteResult struct {
	Site    string                  `json:"site"`
	Path    string                  `json:"path"`
	Reports []overrides.FieldReport `json:"reports"`
}

// Warnings counts the fields that need attention.
func (r SiteResult) Warnings() int {
	n := 0
	for _, report := range r.Reports {
		if report.Warning() {
			n++
		}
	}
	return n
}

// Result summarizes a build.
type Result struct {
	RunID     string        `json:"run_id"`
	Generated int           `json:"generated"`
	Skipped   int           `json:"skipped"`
	DryRun    bool          `json:"dry_run"`
	Sites     []SiteResult  `json:"sites"`
	Duration  time.Duration `json:"duration"`
}

// Warnings counts field warnings over all sites.
func (r *Result) Warnings() int {
	n := 0
	for _, s := range r.Sites {
		n += s.Warnings()
	}
	return n
}

type siteDocument struct {
	document string
	reports  []overrides.FieldReport
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *RunOptions, event ProgressEvent) {
	if opts.OnProgress != nil {
		opts.OnProgress(event)
	}
}

// Run builds one document per site from the shared template. Every site
// starts from the unmodified template. The "default" entry is skipped and
// not counted. Field problems are warnings; only writer failures and
// cancellation stop the run.
func Run(ctx context.Context, log *logger.Logger, opts RunOptions) (*Result, error) {
	if opts.Policy == nil {
		opts.Policy = overrides.DefaultPolicy()
	}
	if opts.Writer == nil {
		return nil, fmt.Errorf("pipeline: writer is required")
	}

	start := time.Now()
	runID := uuid.New().String()
	log = log.WithRunID(runID)

	sites := make([]mapping.Site, 0, len(opts.Sites))
	for _, site := range opts.Sites {
		if site.IsDefault() {
			continue
		}
		sites = append(sites, site)
	}

	log.Info("Starting consent form build",
		zap.Int("sites", len(sites)),
		zap.Int("workers", opts.Workers),
		zap.Bool("dry_run", opts.DryRun),
	)

	docs, err := individualizeAll(ctx, log, opts, sites)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:  runID,
		DryRun: opts.DryRun,
		Sites:  make([]SiteResult, 0, len(sites)),
	}

	for i, site := range sites {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		path, err := opts.Writer.Write(site, docs[i].document)
		if err != nil {
			return result, fmt.Errorf("writing form for site %s: %w", site.Key, err)
		}

		result.Generated++
		result.Sites = append(result.Sites, SiteResult{Site: site.Key, Path: path, Reports: docs[i].reports})

		log.WithSite(site.Key).Info("Generated consent form",
			zap.String("path", path),
			zap.Bool("dry_run", opts.DryRun),
		)
		emitProgress(&opts, ProgressEvent{
			RunID:   runID,
			Site:    site.Key,
			Path:    path,
			DryRun:  opts.DryRun,
			Reports: docs[i].reports,
		})
	}

	result.Duration = time.Since(start)
	log.Info("Consent form build finished",
		zap.Int("generated", result.Generated),
		zap.Int("skipped", result.Skipped),
		zap.Int("warnings", result.Warnings()),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

// individualizeAll applies the policy to every site. Documents land at the
// index of their site so that writing can follow mapping order.
func individualizeAll(ctx context.Context, log *logger.Logger, opts RunOptions, sites []mapping.Site) ([]siteDocument, error) {
	docs := make([]siteDocument, len(sites))

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, site := range sites {
		i, site := i, site
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			document, reports := opts.Policy.Apply(log.Logger, site, opts.Template)
			docs[i] = siteDocument{document: document, reports: reports}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}
