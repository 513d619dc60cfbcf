package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/consent-builder/internal/config"
	"github.com/jonathan/consent-builder/internal/logger"
	"github.com/jonathan/consent-builder/internal/mapping"
	"github.com/jonathan/consent-builder/internal/observability"
	"github.com/jonathan/consent-builder/internal/output"
	"github.com/jonathan/consent-builder/internal/overrides"
	"github.com/jonathan/consent-builder/internal/paths"
	"github.com/jonathan/consent-builder/internal/pipeline"
	"github.com/jonathan/consent-builder/internal/sanitize"
	"github.com/jonathan/consent-builder/internal/watch"
)

var buildCommand = &cobra.Command{
	Use:   "build",
	Short: "Generate one consent form per site in the mapping",
	Long: `Reads the site mapping and the default template, applies each site's overrides and writes one HTML file per site.

Configuration can be loaded from a JSON file using --config. CONSENT_MAPPING, CONSENT_TEMPLATE and CONSENT_OUTDIR provide defaults for the path flags. Command-line arguments override both.`,
	RunE: runBuildCmd,
}

var (
	buildConfigPath string
	buildMapping    string
	buildTemplate   string
	buildOutDir     string
	buildVerbose    bool
	buildDryRun     bool
	buildWorkers    int
	buildSanitize   bool
	buildStrict     bool
	buildLogFormat  string
	buildLogLevel   string
	buildWatch      bool
)

func init() {
	// Config file flag (processed first)
	buildCommand.Flags().StringVar(&buildConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	buildCommand.Flags().StringVarP(&buildMapping, "mapping", "m", "", "Path to the JSON or YAML mapping file (default "+config.DefaultMapping+")")
	buildCommand.Flags().StringVarP(&buildTemplate, "template", "t", "", "Path to the default consent form template (default "+config.DefaultTemplate+")")
	buildCommand.Flags().StringVarP(&buildOutDir, "outdir", "o", "", "Directory for all generated files (overrides the mapping directory)")
	buildCommand.Flags().BoolVarP(&buildVerbose, "verbose", "v", false, "Enable detailed logging and print a summary")
	buildCommand.Flags().BoolVar(&buildDryRun, "dry-run", false, "Run without writing files")
	buildCommand.Flags().IntVar(&buildWorkers, "workers", 0, "Number of sites individualized concurrently (default 1)")
	buildCommand.Flags().BoolVar(&buildSanitize, "sanitize", false, "Strip scripts and event handlers from override text")
	buildCommand.Flags().BoolVar(&buildStrict, "strict", false, "Validate the mapping against the schema before building")
	buildCommand.Flags().StringVar(&buildLogFormat, "log-format", "", "Log format: console or json")
	buildCommand.Flags().StringVar(&buildLogLevel, "log-level", "", "Log level: debug, info, warn or error")
	buildCommand.Flags().BoolVarP(&buildWatch, "watch", "w", false, "Rebuild whenever the mapping or template changes")

	rootCmd.AddCommand(buildCommand)
}

func runBuildCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()

	cfg, err := resolveBuildConfig(cmd)
	if err != nil {
		return err
	}

	l, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cmd.ErrOrStderr()})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()
	log := l.WithComponent("build")

	if cfg.Verbose && buildConfigPath != "" {
		_, _ = fmt.Fprintf(out, "Loaded config from: %s\n", buildConfigPath)
	}

	_, err = buildOnce(ctx, cfg, log, out)
	if !buildWatch {
		return err
	}
	if err != nil {
		log.Error("Build failed", zap.Error(err))
	}

	return watchAndRebuild(ctx, cfg, log, out)
}

// resolveBuildConfig layers flags over the config file, the environment and
// the built-in defaults, in that order of priority.
func resolveBuildConfig(cmd *cobra.Command) (config.Config, error) {
	// Step 1: Load config file if provided
	var cfg config.Config
	if buildConfigPath != "" {
		loadedCfg, err := config.LoadConfig(buildConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}

		// Validate loaded config
		if err := loadedCfg.Validate(); err != nil {
			return cfg, err
		}

		cfg = *loadedCfg
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("mapping") {
		cfg.Mapping = buildMapping
	}
	if cmd.Flags().Changed("template") {
		cfg.Template = buildTemplate
	}
	if cmd.Flags().Changed("outdir") {
		cfg.OutDir = buildOutDir
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = buildVerbose
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = buildDryRun
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = buildWorkers
	}
	if cmd.Flags().Changed("sanitize") {
		cfg.Sanitize = buildSanitize
	}
	if cmd.Flags().Changed("strict") {
		cfg.Strict = buildStrict
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat = buildLogFormat
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = buildLogLevel
	}

	// Verbose implies debug logging unless a level was chosen
	if cfg.Verbose && cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}

	// Step 3: Apply environment and defaults for unset values
	cfg = cfg.MergeWithDefaults(config.FromEnv())
	cfg = cfg.MergeWithDefaults(config.Defaults())

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// buildInputs are the resolved files a build reads.
type buildInputs struct {
	MappingPath  string
	TemplatePath string
	Mapping      *mapping.Mapping
	Template     string
}

// resolveInputs finds and reads the mapping and the template.
func resolveInputs(cfg config.Config) (*buildInputs, error) {
	baseDir := paths.ExecutableDir()

	mappingPath, ok := paths.ResolveMapping(cfg.Mapping, baseDir)
	if !ok {
		return nil, fmt.Errorf("mapping file not found: %s", cfg.Mapping)
	}

	m, err := mapping.Load(mappingPath)
	if err != nil {
		return nil, err
	}

	if cfg.Strict {
		if err := mapping.ValidateFile(m.Path); err != nil {
			return nil, fmt.Errorf("mapping %s does not match the schema: %w", m.Path, err)
		}
	}

	templatePath, ok := paths.ResolveTemplate(cfg.Template, m.Dir, baseDir)
	if !ok {
		return nil, fmt.Errorf("template file not found: %s", cfg.Template)
	}

	data, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", templatePath, err)
	}

	return &buildInputs{
		MappingPath:  m.Path,
		TemplatePath: templatePath,
		Mapping:      m,
		Template:     string(data),
	}, nil
}

// buildPolicy returns the field policy for the configuration.
func buildPolicy(cfg config.Config) *overrides.Policy {
	var filter overrides.TextFilter
	if cfg.Sanitize {
		filter = sanitize.HTML
	}
	return overrides.NewPolicy(overrides.DefaultFields(), filter)
}

// printProgress writes one line per generated form.
func printProgress(out io.Writer) pipeline.ProgressCallback {
	return func(event pipeline.ProgressEvent) {
		if event.DryRun {
			_, _ = fmt.Fprintf(out, "[Dry-run] Would generate: %s -> %s\n", event.Site, event.Path)
			return
		}
		_, _ = fmt.Fprintf(out, "Generated: %s -> %s\n", event.Site, event.Path)
	}
}

// buildOnce runs a complete build and prints its progress to out.
func buildOnce(ctx context.Context, cfg config.Config, log *logger.Logger, out io.Writer) (*pipeline.Result, error) {
	inputs, err := resolveInputs(cfg)
	if err != nil {
		return nil, err
	}

	log.Debug("Resolved inputs",
		zap.String("mapping", inputs.MappingPath),
		zap.String("template", inputs.TemplatePath),
		zap.Int("sites", len(inputs.Mapping.Sites)),
	)

	outDir := ""
	if cfg.OutDir != "" {
		outDir, err = filepath.Abs(paths.ExpandHome(cfg.OutDir))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve output directory: %w", err)
		}
	}

	writer := output.NewFileWriter(output.Resolver{MappingDir: inputs.Mapping.Dir, OutDir: outDir}, cfg.DryRun)

	result, err := pipeline.Run(ctx, log, pipeline.RunOptions{
		Template:   inputs.Template,
		Sites:      inputs.Mapping.Sites,
		Policy:     buildPolicy(cfg),
		Writer:     writer,
		Workers:    cfg.Workers,
		DryRun:     cfg.DryRun,
		OnProgress: printProgress(out),
	})
	if err != nil {
		return result, err
	}

	_, _ = fmt.Fprintf(out, "Done. Generated: %d, Skipped: %d.\n", result.Generated, result.Skipped)

	if cfg.Verbose {
		observability.NewPrinter(out).PrintRunSummary(result)
	}

	return result, nil
}

// watchAndRebuild reruns the build whenever the mapping or template changes.
func watchAndRebuild(ctx context.Context, cfg config.Config, log *logger.Logger, out io.Writer) error {
	baseDir := paths.ExecutableDir()
	mappingPath, _ := paths.ResolveMapping(cfg.Mapping, baseDir)
	templatePath, _ := paths.ResolveTemplate(cfg.Template, filepath.Dir(mappingPath), baseDir)

	w, err := watch.New(log.Logger, []string{mappingPath, templatePath}, watch.DefaultDebounce)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	return w.Run(ctx, func(ctx context.Context) error {
		_, err := buildOnce(ctx, cfg, log, out)
		return err
	})
}
