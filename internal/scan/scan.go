// Package scan runs the full pipeline over a directory: discover files, parse
// them with the language's front end, classify the trees and merge the
// per-file reports in traversal order.
package scan

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/phobologic/declscan/internal/aggregate"
	"github.com/phobologic/declscan/internal/cache"
	"github.com/phobologic/declscan/internal/classify"
	"github.com/phobologic/declscan/internal/config"
	"github.com/phobologic/declscan/internal/discover"
	"github.com/phobologic/declscan/internal/errs"
	"github.com/phobologic/declscan/internal/metrics"
	"github.com/phobologic/declscan/internal/model"
	"github.com/phobologic/declscan/internal/parse"
)

// Options configures one run. Only Root and Config are required.
type Options struct {
	Root   string
	Config *config.Config

	// FrontEnd overrides resolution of Config.Language.
	FrontEnd parse.FrontEnd
	Cache    *cache.Store
	Metrics  *metrics.Recorder
	Logger   *slog.Logger
}

// slot holds the outcome of one discovered file. Exactly one of report or
// warning is set once its worker finishes; a slot left empty belongs to a
// file abandoned by cancellation.
type slot struct {
	report  *model.FileReport
	failure *model.Failure
	warning *model.Warning
}

type scanner struct {
	fe      parse.FrontEnd
	opts    classify.Options
	cache   *cache.Store
	metrics *metrics.Recorder
	log     *slog.Logger
}

// Run scans opts.Root. Per-file problems end up in the report's diagnostics;
// the returned error is reserved for fatal conditions (bad root, unknown
// language, unavailable front end) and cancellation.
func Run(ctx context.Context, opts Options) (*model.DirectoryReport, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	root := filepath.Clean(opts.Root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, errs.Wrap(err, errs.ConfigError, "scan root")
	}
	if !info.IsDir() {
		return nil, errs.New(errs.ConfigError, "scan root %s is not a directory", root)
	}
	// WalkDir does not descend into a symlinked root.
	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, errs.Wrap(err, errs.ConfigError, "scan root")
	}

	fe := opts.FrontEnd
	if fe == nil {
		if fe, err = parse.Resolve(cfg.Language, cfg); err != nil {
			return nil, err
		}
	}

	s := &scanner{
		fe:      fe,
		opts:    classify.Options{ClassLevelIsStatic: cfg.Classify.ClassmethodStatic},
		cache:   opts.Cache,
		metrics: opts.Metrics,
		log:     logger.With("language", fe.Language()),
	}

	workers := cfg.Parse.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	walkCfg := discover.Config{
		IgnoreDirs:       cfg.IgnoreDirs,
		MaxDepth:         cfg.Depth(),
		Extensions:       fe.Extensions(),
		ExcludeFiles:     cfg.ExcludeFiles,
		RespectGitignore: cfg.RespectGitignore,
		MaxFileSize:      cfg.MaxFileSize,
	}

	start := time.Now()
	s.log.Debug("scan started", "root", root, "resolved", walkRoot, "workers", workers)

	var (
		slots []*slot
		diags model.Diagnostics
		fatal error
	)
	g := new(errgroup.Group)
	g.SetLimit(workers)

	for f, werr := range discover.Walk(walkRoot, walkCfg) {
		if ctx.Err() != nil {
			break
		}
		if werr != nil {
			if errs.IsFatal(werr) {
				fatal = werr
				break
			}
			sl := &slot{warning: warningFor(werr)}
			s.log.Warn("skipping entry", "path", sl.warning.Path, "error", werr)
			slots = append(slots, sl)
			continue
		}
		sl := &slot{}
		slots = append(slots, sl)
		g.Go(func() error {
			s.process(ctx, f, sl)
			return nil
		})
	}
	_ = g.Wait()

	if fatal != nil {
		return nil, fatal
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var files []model.FileReport
	for _, sl := range slots {
		switch {
		case sl.warning != nil:
			diags.Warnings = append(diags.Warnings, *sl.warning)
		case sl.report != nil:
			files = append(files, *sl.report)
			if sl.failure != nil {
				diags.Failed = append(diags.Failed, *sl.failure)
			}
		}
	}

	report := aggregate.Merge(root, fe.Language(), files, diags)
	s.log.Info("scan finished",
		"files", len(report.Files),
		"declarations", report.DeclarationCount(),
		"failed", len(diags.Failed),
		"warnings", len(diags.Warnings),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return report, nil
}

// process fills sl for one file. It never returns an error: every per-file
// problem becomes a failed report or a warning.
func (s *scanner) process(ctx context.Context, f discover.FileEntry, sl *slot) {
	source, err := os.ReadFile(f.AbsPath)
	if err != nil {
		sl.warning = &model.Warning{Path: f.Path, Message: errs.Wrap(err, errs.IOError, "reading").Error()}
		s.log.Warn("unreadable file", "path", f.Path, "error", err)
		return
	}

	var key []byte
	if s.cache != nil {
		key = cache.Key(s.fe.Language(), s.opts, source)
		res, ok, err := s.cache.Get(key)
		if err != nil {
			s.log.Debug("cache lookup failed", "path", f.Path, "error", err)
		}
		if ok {
			report := aggregate.File(f.Path, s.fe.Language(), res)
			sl.report = &report
			s.metrics.File(report, true)
			return
		}
	}

	begin := time.Now()
	tree, err := s.fe.Parse(ctx, f.Path, source)
	s.metrics.ObserveParse(s.fe.Language(), time.Since(begin))
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return
		}
		s.fail(f.Path, err, sl)
		return
	}

	res, err := classify.Classify(tree, s.opts)
	if err != nil {
		s.fail(f.Path, err, sl)
		return
	}

	if s.cache != nil {
		if err := s.cache.Put(key, res); err != nil {
			s.log.Warn("cache write failed", "path", f.Path, "error", err)
		}
	}

	report := aggregate.File(f.Path, s.fe.Language(), res)
	sl.report = &report
	s.metrics.File(report, false)
	s.log.Debug("classified file", "path", f.Path, "declarations", len(res.Declarations))
}

func (s *scanner) fail(path string, err error, sl *slot) {
	report, failure := aggregate.Failed(path, s.fe.Language(), err)
	sl.report = &report
	sl.failure = &failure
	s.metrics.File(report, false)
	s.log.Warn("file failed", "path", path, "error", err)
}

func warningFor(err error) *model.Warning {
	var e *errs.Error
	if errors.As(err, &e) {
		msg := e.Message
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
		return &model.Warning{Path: e.Path, Message: msg}
	}
	return &model.Warning{Message: err.Error()}
}
