package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/declscan/internal/config"
	"github.com/phobologic/declscan/internal/errs"
)

const (
	sentinelStart = "# declscan:start"
	sentinelEnd   = "# declscan:end"
)

// newInitCmd builds the `declscan init` subcommand, which writes (or
// refreshes) the generated settings block of a configuration file.
func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	var dryRun, force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter " + config.DefaultFileName,
		Long: `Write a starter configuration file. The generated settings are wrapped in
sentinel comments so they can be refreshed in place on later runs without
touching the rest of the file.

path defaults to ./` + config.DefaultFileName + `.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			section := generateSection()

			// --dry-run with no path: just print the section itself.
			if dryRun && len(args) == 0 {
				_, _ = fmt.Fprintln(stdout, section)
				return nil
			}

			path := config.DefaultFileName
			if len(args) > 0 {
				path = args[0]
			}

			existing, err := os.ReadFile(path)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return errs.Wrap(err, errs.IOError, "reading %s", path)
			}
			content := string(existing)
			if force {
				content = ""
			} else if strings.TrimSpace(content) != "" && !hasSection(content) {
				return errs.New(errs.ConfigError, "%s already exists without a generated block; use --force to overwrite", path)
			}
			updated := applySection(content, section)

			if dryRun {
				_, _ = fmt.Fprint(stdout, updated)
				return nil
			}

			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				return errs.Wrap(err, errs.IOError, "writing %s", path)
			}

			_, _ = fmt.Fprintf(stderr, "wrote declscan settings to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing file that has no generated block")
	return cmd
}

// generateSection returns the sentinel-wrapped starter settings.
func generateSection() string {
	return sentinelStart + "\n" + strings.TrimRight(config.Starter(), "\n") + "\n" + sentinelEnd
}

func hasSection(content string) bool {
	start := strings.Index(content, sentinelStart)
	return start >= 0 && strings.Index(content, sentinelEnd) > start
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if content == "" {
		return section + "\n"
	}
	// Append, ensuring a blank line separator.
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
