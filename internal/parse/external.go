package parse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/phobologic/declscan/internal/config"
	"github.com/phobologic/declscan/internal/errs"
	"github.com/phobologic/declscan/internal/syntax"
)

// External runs a configured command per file. The command reads the source
// on stdin and writes a single JSON response to stdout:
//
//	{"root": {"kind": "module", "children": [...]}}
//	{"error": "unexpected token at line 3"}
//
// The file's path relative to the scan root is passed in DECLSCAN_PATH.
type External struct {
	name    string
	command []string
	exts    []string
	rules   syntax.Rules
	timeout time.Duration
}

type externalResponse struct {
	Root  *syntax.Node `json:"root"`
	Error string       `json:"error"`
}

// NewExternal checks that the command is runnable and returns its front end.
func NewExternal(name string, fe config.FrontEnd, timeout time.Duration) (*External, error) {
	if len(fe.Command) == 0 {
		return nil, errs.New(errs.ConfigError, "frontends.%s: command is empty", name)
	}
	if _, err := exec.LookPath(fe.Command[0]); err != nil {
		return nil, errs.Wrap(err, errs.FrontEndUnavailable, "front end for %s", name)
	}
	return &External{
		name:    name,
		command: fe.Command,
		exts:    fe.Extensions,
		rules: syntax.Rules{
			ConstructorNames:       fe.ConstructorNames,
			ConstructorIsClassName: fe.ConstructorIsClassName,
		},
		timeout: timeout,
	}, nil
}

func (e *External) Language() string     { return e.name }
func (e *External) Extensions() []string { return e.exts }

func (e *External) Parse(ctx context.Context, path string, source []byte) (*syntax.Tree, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.command[0], e.command[1:]...)
	cmd.Stdin = bytes.NewReader(source)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(), "DECLSCAN_PATH="+path)
	// Children of the command may keep stdout open after it is killed.
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errs.New(errs.ParseError, "front end timed out after %s", e.timeout)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, exec.ErrNotFound) {
			return nil, errs.Wrap(err, errs.FrontEndUnavailable, "front end for %s", e.name)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, errs.New(errs.ParseError, "front end failed: %s", msg)
	}

	var resp externalResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, errs.Wrap(err, errs.ParseError, "front end returned malformed output")
	}
	if resp.Error != "" {
		return nil, errs.New(errs.ParseError, "%s", resp.Error)
	}

	tree := &syntax.Tree{Language: e.name, Rules: e.rules, Root: resp.Root}
	if err := tree.Validate(); err != nil {
		return nil, errs.Wrap(err, errs.ParseError, "front end returned malformed tree")
	}
	return tree, nil
}
