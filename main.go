// notifyguard checks C# sources for INotifyPropertyChanged idiom violations
// and prints the findings in TOON or YAML format.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"go/token"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/analysis"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/notifyguard/internal/analyze"
	"github.com/phobologic/notifyguard/internal/config"
	"github.com/phobologic/notifyguard/internal/discover"
	"github.com/phobologic/notifyguard/internal/model"
	"github.com/phobologic/notifyguard/internal/parse"
	"github.com/phobologic/notifyguard/internal/ranking"
	"github.com/phobologic/notifyguard/internal/rules"
	"github.com/phobologic/notifyguard/internal/symbols"
	"github.com/phobologic/notifyguard/internal/syntax"
	"github.com/phobologic/notifyguard/internal/telemetry"
	"github.com/phobologic/notifyguard/internal/toon"
)

var version = "dev"

// ErrFindings is returned by run when --exit-code is set and the report
// is not empty.
var ErrFindings = errors.New("findings reported")

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)
	if errors.Is(err, ErrFindings) {
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	format           string
	configPath       string
	namesPath        string
	maxFindings      int
	minSeverity      string
	maxFileSize      int
	includeGenerated bool
	cachePath        string
	metricsPath      string
	exitCode         bool
	fix              bool
	verbose          bool
	showVersion      bool
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		switch args[0] {
		case "init":
			return runInit(args[1:], stdout, stderr)
		case "rules":
			return runRules(args[1:], stdout, stderr)
		}
	}

	fs := flag.NewFlagSet("notifyguard", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.format, "f", "toon", "output format: toon or yaml")
	fs.StringVar(&o.format, "format", "toon", "output format: toon or yaml")
	fs.StringVar(&o.configPath, "c", "", "config file (default <root>/"+config.FileName+")")
	fs.StringVar(&o.configPath, "config", "", "config file (default <root>/"+config.FileName+")")
	fs.StringVar(&o.namesPath, "names", "", "well-known names override file")
	fs.IntVar(&o.maxFindings, "n", 0, "maximum number of findings to include")
	fs.IntVar(&o.maxFindings, "max-findings", 0, "maximum number of findings to include")
	fs.StringVar(&o.minSeverity, "min-severity", "", "drop findings below this severity: info, warning or error")
	fs.IntVar(&o.maxFileSize, "max-file-size", parse.DefaultMaxFileSize, "skip files larger than this many bytes")
	fs.BoolVar(&o.includeGenerated, "include-generated", false, "analyze generated files too")
	fs.StringVar(&o.cachePath, "cache", "", "cache file path")
	fs.StringVar(&o.metricsPath, "metrics-file", "", "write prometheus metrics to this file")
	fs.BoolVar(&o.exitCode, "exit-code", false, "exit with status 2 when findings are reported")
	fs.BoolVar(&o.fix, "fix", false, "apply suggested fixes in place")
	fs.BoolVar(&o.verbose, "v", false, "verbose logging")
	fs.BoolVar(&o.verbose, "verbose", false, "verbose logging")
	fs.BoolVar(&o.showVersion, "V", false, "show version and exit")
	fs.BoolVar(&o.showVersion, "version", false, "show version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: notifyguard [flags] [path]
       notifyguard init [--dry-run] [path-to-.editorconfig]
       notifyguard rules [-f toon|yaml]

Check the C# sources under path (default .) for INotifyPropertyChanged
implementation mistakes.

Flags:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	if o.showVersion {
		_, _ = fmt.Fprintf(stdout, "notifyguard %s\n", version)
		return nil
	}
	if o.format != "toon" && o.format != "yaml" {
		return fmt.Errorf("unknown format %q (want toon or yaml)", o.format)
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", root)
	}

	logger := telemetry.NewLogger(stderr, o.verbose, telemetry.NewRunID())

	cfgPath := o.configPath
	if cfgPath == "" {
		cfgPath = config.Find(root)
	}
	cfg := &config.Config{}
	if cfgPath != "" {
		if cfg, err = config.Load(cfgPath); err != nil {
			return err
		}
		logger.Debug("loaded config", slog.String("path", cfgPath))
	}
	if err := applyFlags(cfg, &o, set); err != nil {
		return err
	}

	names, err := cfg.ResolveNames(o.namesPath)
	if err != nil {
		return err
	}

	// Discover files
	files, err := discover.Files(root)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no C# files found")
	}

	// Check cache freshness
	cacheable := o.cachePath != "" && !o.fix && !o.exitCode
	if cacheable && cacheIsFresh(o.cachePath, root, files, cfgPath) {
		data, err := os.ReadFile(o.cachePath)
		if err == nil {
			logger.Debug("using cache", slog.String("path", o.cachePath))
			_, _ = stdout.Write(data)
			return nil
		}
	}

	// Filter by size
	files = filterBySize(root, files, o.maxFileSize, logger)
	if len(files) == 0 {
		return fmt.Errorf("no C# files found (all exceeded size limit)")
	}

	ctx, span := telemetry.Tracer().Start(context.Background(), "notifyguard.run")
	defer span.End()
	span.SetAttributes(attribute.String("root", root), attribute.Int("files", len(files)))

	parsed, err := parseFiles(ctx, root, files, o.maxFileSize, logger)
	if err != nil {
		return err
	}
	if len(parsed) == 0 {
		return fmt.Errorf("no files could be parsed")
	}

	comp := symbols.Bind(parsed, names.Metadata()...)
	a := analyze.New(comp, analyze.Options{
		Disabled:         cfg.Disabled,
		IncludeGenerated: cfg.IncludeGenerated,
		Names:            names,
		Logger:           logger,
	})
	diags, err := a.Run(ctx, parsed)
	if err != nil {
		return err
	}

	if o.fix {
		if err := applyFixes(root, a, parsed, diags, logger); err != nil {
			return err
		}
	}

	findings := toFindings(a.FileSet(), diags, cfg)
	if cfg.MinSeverity != "" {
		findings = ranking.FilterBySeverity(findings, model.Severity(cfg.MinSeverity))
	}
	ranking.Sort(findings)

	rp := &model.Report{
		RepoName: filepath.Base(root),
		Root:     filepath.Base(root),
		Files:    len(parsed),
		Findings: findings,
		Summary:  ranking.Summarize(findings),
	}
	if cfg.MaxFindings > 0 {
		rp = ranking.SelectFindings(rp, cfg.MaxFindings)
	}

	output, err := encodeReport(rp, o.format)
	if err != nil {
		return err
	}

	// Write cache
	if cacheable {
		_ = os.WriteFile(o.cachePath, []byte(output+"\n"), 0o644)
	}
	if o.metricsPath != "" {
		if err := telemetry.WriteMetrics(o.metricsPath); err != nil {
			logger.Warn("writing metrics", slog.String("path", o.metricsPath), slog.String("err", err.Error()))
		}
	}

	_, _ = fmt.Fprintln(stdout, output)

	if o.exitCode && len(findings) > 0 {
		return ErrFindings
	}
	return nil
}

// applyFlags overrides configuration values with explicitly set flags.
func applyFlags(cfg *config.Config, o *options, set map[string]bool) error {
	if set["n"] || set["max-findings"] {
		cfg.MaxFindings = o.maxFindings
	}
	if set["include-generated"] {
		cfg.IncludeGenerated = o.includeGenerated
	}
	if set["min-severity"] {
		sev, err := rules.ParseSeverity(o.minSeverity)
		if err != nil {
			return err
		}
		cfg.MinSeverity = sev
	}
	return nil
}

func encodeReport(rp *model.Report, format string) (string, error) {
	if format == "yaml" {
		data, err := yaml.Marshal(rp)
		if err != nil {
			return "", fmt.Errorf("encoding yaml: %w", err)
		}
		return strings.TrimSuffix(string(data), "\n"), nil
	}
	return toon.Encode(rp), nil
}

func toFindings(fset *token.FileSet, diags map[string][]analysis.Diagnostic, cfg *config.Config) []model.Finding {
	var out []model.Finding
	for _, ds := range diags {
		for _, d := range ds {
			pos := fset.Position(d.Pos)
			f := model.Finding{
				Rule:     d.Category,
				Severity: model.Severity(cfg.SeverityOf(d.Category)),
				File:     filepath.ToSlash(pos.Filename),
				Line:     pos.Line,
				Column:   pos.Column,
				Message:  d.Message,
			}
			if len(d.SuggestedFixes) > 0 {
				f.Fix = d.SuggestedFixes[0].Message
			}
			for _, r := range d.Related {
				rp := fset.Position(r.Pos)
				f.Related = append(f.Related, model.Related{
					File:    filepath.ToSlash(rp.Filename),
					Line:    rp.Line,
					Message: r.Message,
				})
			}
			out = append(out, f)
		}
	}
	return out
}

func applyFixes(root string, a *analyze.Analyzer, files []*syntax.File, diags map[string][]analysis.Diagnostic, logger *slog.Logger) error {
	fixed := 0
	for _, f := range files {
		ds := diags[f.Path]
		if len(ds) == 0 {
			continue
		}
		out := a.ApplyFixes(f, ds)
		if string(out) == string(f.Source) {
			continue
		}
		if err := os.WriteFile(filepath.Join(root, f.Path), out, 0o644); err != nil {
			return fmt.Errorf("writing fixes to %s: %w", f.Path, err)
		}
		fixed++
	}
	logger.Info("applied fixes", slog.Int("files", fixed))
	return nil
}

func cacheIsFresh(cachePath, root string, files []discover.FileEntry, cfgPath string) bool {
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return false
	}
	cacheMtime := cacheInfo.ModTime()

	paths := make([]string, 0, len(files)+1)
	for _, f := range files {
		paths = append(paths, filepath.Join(root, f.Path))
	}
	if cfgPath != "" {
		paths = append(paths, cfgPath)
	}
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(cacheMtime) {
			return false
		}
	}
	return true
}

func filterBySize(root string, files []discover.FileEntry, maxSize int, logger *slog.Logger) []discover.FileEntry {
	var kept []discover.FileEntry
	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			kept = append(kept, f) // keep if can't stat
			continue
		}
		if fi.Size() > int64(maxSize) {
			logger.Warn("skipped file", slog.String("file", f.Path), slog.Int("limit_bytes", maxSize))
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// parseFiles parses files concurrently, one parser per worker. Files that
// cannot be read or parsed are logged and skipped. The result keeps the
// discovery order.
func parseFiles(ctx context.Context, root string, files []discover.FileEntry, maxSize int, logger *slog.Logger) ([]*syntax.File, error) {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	for i := range files {
		work <- i
	}
	close(work)

	indexed := make([]*syntax.File, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for range numWorkers {
		g.Go(func() error {
			p, err := parse.New(parse.WithMaxFileSize(int64(maxSize)))
			if err != nil {
				return fmt.Errorf("creating parser: %w", err)
			}

			for idx := range work {
				if err := ctx.Err(); err != nil {
					return err
				}
				f := files[idx]
				source, err := os.ReadFile(filepath.Join(root, f.Path))
				if err != nil {
					logger.Warn("failed to read file", slog.String("file", f.Path), slog.String("err", err.Error()))
					continue
				}
				sf, err := p.Parse(ctx, source, filepath.ToSlash(f.Path))
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					logger.Warn("failed to parse file", slog.String("file", f.Path), slog.String("err", err.Error()))
					continue
				}
				if sf.HasErrors {
					logger.Debug("file has syntax errors", slog.String("file", f.Path))
				}
				indexed[idx] = sf
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parsing files: %w", err)
	}

	var parsed []*syntax.File
	for _, sf := range indexed {
		if sf != nil {
			parsed = append(parsed, sf)
		}
	}
	return parsed, nil
}

// runRules implements `notifyguard rules`, which lists the rule catalog.
func runRules(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("notifyguard rules", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var format string
	fs.StringVar(&format, "f", "toon", "output format: toon or yaml")
	fs.StringVar(&format, "format", "toon", "output format: toon or yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var infos []model.RuleInfo
	for _, r := range rules.All() {
		infos = append(infos, model.RuleInfo{
			ID:       r.ID,
			Severity: model.Severity(r.Severity),
			Fixable:  r.Fixable,
			Title:    r.Title,
		})
	}

	switch format {
	case "toon":
		_, _ = fmt.Fprintln(stdout, toon.EncodeRules(infos))
	case "yaml":
		data, err := yaml.Marshal(map[string][]model.RuleInfo{"rules": infos})
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		_, _ = stdout.Write(data)
	default:
		return fmt.Errorf("unknown format %q (want toon or yaml)", format)
	}
	return nil
}

// flagsWithValue lists flags that take a value argument.
var flagsWithValue = map[string]bool{
	"-f": true, "--f": true,
	"-format": true, "--format": true,
	"-c": true, "--c": true,
	"-config": true, "--config": true,
	"-names": true, "--names": true,
	"-n": true, "--n": true,
	"-max-findings": true, "--max-findings": true,
	"-min-severity": true, "--min-severity": true,
	"-max-file-size": true, "--max-file-size": true,
	"-cache": true, "--cache": true,
	"-metrics-file": true, "--metrics-file": true,
}

// reorderArgs moves positional arguments after all flags so Go's flag package
// can parse them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 0 && args[i][0] == '-' {
			flags = append(flags, args[i])
			if flagsWithValue[args[i]] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
