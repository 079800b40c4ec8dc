package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/deepnoodle-ai/docdb"
	"github.com/deepnoodle-ai/docdb/document"
	"github.com/deepnoodle-ai/docdb/handle"
	"github.com/deepnoodle-ai/wonton/cli"
	"github.com/pmezard/go-difflib/difflib"
)

// unifiedDiff returns the line diff turning stored into local, or "" when
// they are equal
func unifiedDiff(stored, local, uri, file string, contextLines int) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(stored),
		B:        difflib.SplitLines(local),
		FromFile: uri,
		ToFile:   file,
		Context:  contextLines,
	})
}

// printDiff writes a unified diff with added and removed lines colored
func printDiff(w io.Writer, diff string) {
	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case line == "":
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			fmt.Fprint(w, headerStyle.Sprint(line))
		case strings.HasPrefix(line, "@@"):
			fmt.Fprint(w, mutedStyle.Sprint(line))
		case strings.HasPrefix(line, "+"):
			fmt.Fprint(w, successStyle.Sprint(line))
		case strings.HasPrefix(line, "-"):
			fmt.Fprint(w, errorStyle.Sprint(line))
		default:
			fmt.Fprint(w, line)
		}
	}
}

// storedContent reads the whole content of a document whatever its format
func storedContent(ctx context.Context, client *docdb.Client, uri string, opts ...document.Option) ([]byte, error) {
	h := handle.NewBytesHandle()
	if _, err := client.GenericManager().Read(ctx, uri, h, opts...); err != nil {
		return nil, err
	}
	return h.Get(), nil
}

func registerDiffCommand(app *cli.App) {
	app.Command("diff").
		Description("Compare a local file with a stored document").
		Args("file", "uri").
		Flags(
			cli.Int("context", "c").Default(3).Help("Number of context lines around changes"),
			cli.String("txid", "").Help("Read the document inside an open transaction"),
		).
		Run(func(ctx *cli.Context) error {
			client, _, err := parseGlobalFlags(ctx).client()
			if err != nil {
				return cli.Errorf("%v", err)
			}
			file, uri := ctx.Arg(0), ctx.Arg(1)
			local, err := os.ReadFile(file)
			if err != nil {
				return cli.Errorf("%v", err)
			}
			goCtx, stop := signalContext()
			defer stop()
			stored, err := storedContent(goCtx, client, uri, document.WithTransaction(transactionFlag(ctx, client)))
			if err != nil {
				return cli.Errorf("%v", err)
			}
			diff, err := unifiedDiff(string(stored), string(local), uri, file, ctx.Int("context"))
			if err != nil {
				return cli.Errorf("%v", err)
			}
			if diff == "" {
				fmt.Println(successStyle.Sprint(checkmark + " identical"))
				return nil
			}
			printDiff(os.Stdout, diff)
			return nil
		})
}
