package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/deepnoodle-ai/docdb"
	"github.com/deepnoodle-ai/docdb/slogger"
	"github.com/deepnoodle-ai/docdb/wire"
	"github.com/deepnoodle-ai/wonton/cli"
	"github.com/fsnotify/fsnotify"
)

// syncer uploads files under a directory whenever they are written
type syncer struct {
	client   *docdb.Client
	logger   slogger.Logger
	root     string
	pattern  string
	prefix   string
	debounce time.Duration
}

// matches reports whether a file under the root should be uploaded
func (s *syncer) matches(file string) bool {
	rel, err := filepath.Rel(s.root, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	ok, err := doublestar.PathMatch(filepath.FromSlash(s.pattern), rel)
	return err == nil && ok
}

// addTree watches dir and every directory below it
func addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}

// run watches until ctx is cancelled. Writes are collected and uploaded
// once no further events arrive for the debounce interval.
func (s *syncer) run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := addTree(w, s.root); err != nil {
		return err
	}

	timer := time.NewTimer(s.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if event.Has(fsnotify.Create) {
					if err := addTree(w, event.Name); err != nil {
						s.logger.Warn("failed to watch directory", "path", event.Name, "error", err)
					}
				}
				continue
			}
			if !s.matches(event.Name) {
				continue
			}
			pending[event.Name] = true
			timer.Reset(s.debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watch error", "error", err)
		case <-timer.C:
			s.flush(ctx, pending)
			clear(pending)
		}
	}
}

func (s *syncer) flush(ctx context.Context, pending map[string]bool) {
	files := make([]string, 0, len(pending))
	for f := range pending {
		files = append(files, f)
	}
	slices.Sort(files)
	for _, file := range files {
		uri, err := uriFor(s.root, file, s.prefix)
		if err != nil {
			s.logger.Warn("skipping file", "path", file, "error", err)
			continue
		}
		if err := upload(ctx, s.client, file, uri, wire.FormatUnknown); err != nil {
			fmt.Printf("%s %s %s\n", errorStyle.Sprint(xmark), file, mutedStyle.Sprint(err.Error()))
			continue
		}
		fmt.Printf("%s %s %s\n", successStyle.Sprint(checkmark), file, mutedStyle.Sprint(arrow+" "+uri))
	}
}

func registerWatchCommand(app *cli.App) {
	app.Command("watch").
		Description("Upload files in a directory as they change").
		Args("dir").
		Flags(
			cli.String("pattern", "").Default("**").Help("Glob selecting the files to upload, relative to dir"),
			cli.String("prefix", "p").Default("/").Help("URI directory the files are uploaded under"),
			cli.Int("debounce", "").Default(500).Help("Milliseconds to wait for writes to settle"),
		).
		Run(func(ctx *cli.Context) error {
			g := parseGlobalFlags(ctx)
			client, cfg, err := g.client()
			if err != nil {
				return cli.Errorf("%v", err)
			}
			root := ctx.Arg(0)
			if info, err := os.Stat(root); err != nil || !info.IsDir() {
				return cli.Errorf("%s is not a directory", root)
			}
			if !doublestar.ValidatePathPattern(filepath.FromSlash(ctx.String("pattern"))) {
				return cli.Errorf("invalid pattern %q", ctx.String("pattern"))
			}
			s := &syncer{
				client:   client,
				logger:   g.logger(cfg),
				root:     filepath.Clean(root),
				pattern:  ctx.String("pattern"),
				prefix:   ctx.String("prefix"),
				debounce: time.Duration(ctx.Int("debounce")) * time.Millisecond,
			}
			goCtx, stop := signalContext()
			defer stop()
			fmt.Println(headerStyle.Sprintf("watching %s", s.root) + mutedStyle.Sprint(" (ctrl-c to stop)"))
			return s.run(goCtx)
		})
}
