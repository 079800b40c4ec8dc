package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/deepnoodle-ai/docdb"
	"github.com/deepnoodle-ai/docdb/document"
	"github.com/deepnoodle-ai/docdb/wire"
	"github.com/deepnoodle-ai/wonton/cli"
)

// uriFor maps a local file to a document URI: its path relative to base,
// slash separated, under prefix.
func uriFor(base, file, prefix string) (string, error) {
	rel, err := filepath.Rel(base, file)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") || rel == ".." {
		return "", fmt.Errorf("%s is outside %s", file, base)
	}
	if prefix == "" {
		prefix = "/"
	}
	return path.Join("/", prefix, rel), nil
}

// globBase returns the directory a pattern is relative to: the part before
// the first path segment containing a glob metacharacter
func globBase(pattern string) string {
	base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
	return filepath.FromSlash(base)
}

// loader uploads files to the database, optionally inside one transaction
type loader struct {
	client      *docdb.Client
	prefix      string
	collections []string
	opts        []document.Option
}

func (l *loader) load(ctx context.Context, base string, files []string) (int, error) {
	var loaded int
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return loaded, err
		}
		uri, err := uriFor(base, file, l.prefix)
		if err != nil {
			return loaded, err
		}
		opts := append(append([]document.Option{}, l.opts...), collectionOptions(l.collections)...)
		if err := upload(ctx, l.client, file, uri, wire.FormatUnknown, opts...); err != nil {
			return loaded, fmt.Errorf("load %s: %w", file, err)
		}
		fmt.Printf("%s %s %s\n", successStyle.Sprint(checkmark), file, mutedStyle.Sprint(arrow+" "+uri))
		loaded++
	}
	return loaded, nil
}

// matchFiles expands a glob to the regular files it matches
func matchFiles(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return nil, err
		}
		if info.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	return files, nil
}

func registerLoadCommand(app *cli.App) {
	app.Command("load").
		Description("Load local files matching a glob").
		Long(`Uploads every file matching the pattern. Each document URI is the file's
path relative to the pattern's base directory, under --prefix. Patterns
support ** for recursive matching, e.g. "docs/**/*.json".`).
		Args("pattern").
		Flags(
			cli.String("prefix", "p").Default("/").Help("URI directory the files are loaded under"),
			cli.Strings("collection", "").Help("Add every document to a collection. Can be specified multiple times"),
			cli.Bool("transaction", "t").Help("Load all files in one transaction, rolled back on failure"),
			cli.Int("time-limit", "").Default(60).Help("Transaction time limit in seconds"),
		).
		Run(func(ctx *cli.Context) error {
			client, _, err := parseGlobalFlags(ctx).client()
			if err != nil {
				return cli.Errorf("%v", err)
			}
			pattern := ctx.Arg(0)
			files, err := matchFiles(pattern)
			if err != nil {
				return cli.Errorf("%v", err)
			}
			if len(files) == 0 {
				fmt.Println(warningStyle.Sprint("no files match " + pattern))
				return nil
			}

			goCtx, stop := signalContext()
			defer stop()
			l := &loader{
				client:      client,
				prefix:      ctx.String("prefix"),
				collections: ctx.Strings("collection"),
			}
			if !ctx.Bool("transaction") {
				n, err := l.load(goCtx, globBase(pattern), files)
				if err != nil {
					return cli.Errorf("%v", err)
				}
				fmt.Println(mutedStyle.Sprintf("%d loaded", n))
				return nil
			}

			limit := time.Duration(ctx.Int("time-limit")) * time.Second
			tx, err := client.OpenTransaction(goCtx, "load", limit)
			if err != nil {
				return cli.Errorf("%v", err)
			}
			l.opts = []document.Option{document.WithTransaction(tx)}
			n, err := l.load(goCtx, globBase(pattern), files)
			if err != nil {
				if rbErr := tx.Rollback(context.Background()); rbErr != nil {
					return cli.Errorf("%v (rollback: %v)", err, rbErr)
				}
				return cli.Errorf("%v; rolled back", err)
			}
			if err := tx.Commit(goCtx); err != nil {
				return cli.Errorf("%v", err)
			}
			fmt.Println(mutedStyle.Sprintf("%d loaded in transaction %s", n, tx.ID()))
			return nil
		})
}
