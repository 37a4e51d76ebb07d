// Package discover finds candidate source files under a root directory.
package discover

import (
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/declscan/internal/errs"
)

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path    string // Relative to root, slash separated
	AbsPath string
	Size    int64
}

// Config is the traversal policy. It is built once per run and never
// modified afterwards.
type Config struct {
	IgnoreDirs []string
	// MaxDepth limits how many directory levels below root are entered.
	// 0 means only files directly in root; negative means unlimited.
	MaxDepth         int
	Extensions       []string
	ExcludeFiles     []string
	RespectGitignore bool
	// MaxFileSize skips larger files with a warning; 0 disables the check.
	MaxFileSize int64
}

type matcher struct {
	ignoreDirs map[string]struct{}
	exts       map[string]struct{}
	excludes   []glob.Glob
	gitignore  *ignore.GitIgnore
}

func newMatcher(root string, cfg Config) (*matcher, error) {
	m := &matcher{
		ignoreDirs: make(map[string]struct{}, len(cfg.IgnoreDirs)),
		exts:       make(map[string]struct{}, len(cfg.Extensions)),
	}
	for _, d := range cfg.IgnoreDirs {
		m.ignoreDirs[d] = struct{}{}
	}
	for _, e := range cfg.Extensions {
		m.exts[strings.ToLower(e)] = struct{}{}
	}
	for _, pattern := range cfg.ExcludeFiles {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errs.Wrap(err, errs.ConfigError, "bad exclude pattern %q", pattern)
		}
		m.excludes = append(m.excludes, g)
	}
	if cfg.RespectGitignore {
		m.gitignore = loadGitignore(root)
	}
	return m, nil
}

func (m *matcher) excluded(rel string) bool {
	base := rel[strings.LastIndexByte(rel, '/')+1:]
	for _, g := range m.excludes {
		if g.Match(rel) || g.Match(base) {
			return true
		}
	}
	return m.gitignore != nil && m.gitignore.MatchesPath(rel)
}

var errStop = errors.New("stop")

// Walk lazily yields candidate files under root in lexical order. Unreadable
// entries are yielded as IOError values and never stop the walk. Each call
// walks the tree again.
func Walk(root string, cfg Config) iter.Seq2[FileEntry, error] {
	return func(yield func(FileEntry, error) bool) {
		m, err := newMatcher(root, cfg)
		if err != nil {
			yield(FileEntry{}, err)
			return
		}

		warn := func(rel string, err error) error {
			if !yield(FileEntry{}, &errs.Error{Kind: errs.IOError, Message: "unreadable", Path: rel, Err: err}) {
				return errStop
			}
			return nil
		}

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			rel = filepath.ToSlash(rel)

			if err != nil {
				if stop := warn(rel, err); stop != nil {
					return stop
				}
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if path == root {
					return nil
				}
				if _, skip := m.ignoreDirs[d.Name()]; skip {
					return filepath.SkipDir
				}
				if cfg.MaxDepth >= 0 && strings.Count(rel, "/")+1 > cfg.MaxDepth {
					return filepath.SkipDir
				}
				if m.gitignore != nil && m.gitignore.MatchesPath(rel+"/") {
					return filepath.SkipDir
				}
				return nil
			}

			// Symlinks are never followed; a dangling one is worth a warning.
			if d.Type()&fs.ModeSymlink != 0 {
				if _, statErr := os.Stat(path); statErr != nil {
					return warn(rel, statErr)
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if _, ok := m.exts[strings.ToLower(filepath.Ext(path))]; !ok {
				return nil
			}
			if m.excluded(rel) {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return warn(rel, err)
			}
			if cfg.MaxFileSize > 0 && info.Size() > cfg.MaxFileSize {
				if !yield(FileEntry{}, errs.New(errs.IOError, "skipped (>%d bytes)", cfg.MaxFileSize).WithPath(rel)) {
					return errStop
				}
				return nil
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				abs = path
			}
			if !yield(FileEntry{Path: rel, AbsPath: abs, Size: info.Size()}, nil) {
				return errStop
			}
			return nil
		})
		if walkErr != nil && !errors.Is(walkErr, errStop) {
			yield(FileEntry{}, errs.Wrap(walkErr, errs.IOError, "walking %s", root))
		}
	}
}

// Files collects Walk into a slice, separating files from warnings.
func Files(root string, cfg Config) ([]FileEntry, []error) {
	var (
		files    []FileEntry
		warnings []error
	)
	for f, err := range Walk(root, cfg) {
		if err != nil {
			warnings = append(warnings, err)
			continue
		}
		files = append(files, f)
	}
	return files, warnings
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
