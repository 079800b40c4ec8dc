package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/deepnoodle-ai/docdb/handle"
	"github.com/deepnoodle-ai/docdb/query"
	"github.com/deepnoodle-ai/docdb/wire"
	"github.com/deepnoodle-ai/wonton/cli"
)

func registerSearchCommand(app *cli.App) {
	app.Command("search").
		Description("Search documents").
		Long("Runs a free text search. Every term must occur in a matching document.").
		Args("text?").
		Flags(
			cli.String("options", "").Help("Name of the server query options to apply"),
			cli.Strings("collection", "").Help("Limit matches to a collection. Can be specified multiple times"),
			cli.String("directory", "d").Help("Limit matches to URIs under a directory"),
			cli.Int("start", "").Default(1).Help("1-based position of the first result"),
			cli.Int("page-length", "n").Help("Maximum number of results (defaults to the configured page length)"),
			cli.String("view", "").Help("Response view: results, facets, metadata, all"),
			cli.Bool("json", "").Help("Print the raw response as JSON"),
			cli.String("txid", "").Help("Search inside an open transaction"),
		).
		Run(func(ctx *cli.Context) error {
			client, _, err := parseGlobalFlags(ctx).client()
			if err != nil {
				return cli.Errorf("%v", err)
			}
			qm := client.QueryManager()
			if n := ctx.Int("page-length"); n > 0 {
				qm.SetPageLength(int64(n))
			}
			if v := ctx.String("view"); v != "" {
				view, err := wire.ParseView(v)
				if err != nil {
					return cli.Errorf("%v", err)
				}
				qm.SetView(view)
			}

			def := qm.NewStringDefinition(ctx.String("options"))
			if ctx.NArg() > 0 {
				def.SetText(strings.Join(ctx.Args(), " "))
			}
			def.SetCollections(ctx.Strings("collection")...)
			def.SetDirectory(ctx.String("directory"))

			goCtx, stop := signalContext()
			defer stop()
			sh := handle.NewSearchHandle()
			_, err = qm.Search(goCtx, def, sh,
				query.WithStart(int64(ctx.Int("start"))),
				query.WithTransaction(transactionFlag(ctx, client)))
			if err != nil {
				return cli.Errorf("%v", err)
			}
			if ctx.Bool("json") {
				return printJSON(os.Stdout, sh.Get())
			}
			printSearch(os.Stdout, sh.Get())
			return nil
		})

	app.Command("values").
		Description("List the distinct values of a lexicon").
		Args("name?").
		Flags(
			cli.String("options", "").Help("Name of the server query options defining the lexicon"),
			cli.Int("limit", "").Help("Maximum number of values (0 returns all)"),
			cli.Bool("ascending", "").Help("Order by value instead of by frequency"),
			cli.Bool("tuples", "").Help("Read a tuples lexicon"),
		).
		Run(func(ctx *cli.Context) error {
			client, _, err := parseGlobalFlags(ctx).client()
			if err != nil {
				return cli.Errorf("%v", err)
			}
			qm := client.QueryManager()
			goCtx, stop := signalContext()
			defer stop()

			if ctx.NArg() == 0 {
				lh := handle.NewValuesListHandle()
				if _, err := qm.ValuesList(goCtx, qm.NewValuesListDefinition(ctx.String("options")), lh); err != nil {
					return cli.Errorf("%v", err)
				}
				t := newTable("NAME", "KIND")
				for _, item := range lh.Items() {
					t.add(item.Name, string(item.Kind))
				}
				t.render(os.Stdout)
				return nil
			}

			def := qm.NewValuesDefinition(ctx.Arg(0), ctx.String("options"))
			def.SetPage(1, int64(ctx.Int("limit")))
			if ctx.Bool("ascending") {
				def.SetAscending(true)
			}
			if ctx.Bool("tuples") {
				th := handle.NewTuplesHandle()
				if _, err := qm.Tuples(goCtx, def, th); err != nil {
					return cli.Errorf("%v", err)
				}
				t := newTable("VALUES", "FREQUENCY")
				for _, tuple := range th.Tuples() {
					t.add(strings.Join(tuple.Values, ", "), strconv.FormatInt(tuple.Frequency, 10))
				}
				t.render(os.Stdout)
				return nil
			}
			vh := handle.NewValuesHandle()
			if _, err := qm.Values(goCtx, def, vh); err != nil {
				return cli.Errorf("%v", err)
			}
			t := newTable("VALUE", "FREQUENCY")
			for _, v := range vh.Values() {
				t.add(v.Value, strconv.FormatInt(v.Frequency, 10))
			}
			t.render(os.Stdout)
			return nil
		})

	app.Command("options").
		Description("List the query options known to the server").
		NoArgs().
		Flags(
			cli.String("txid", "").Help("List inside an open transaction"),
		).
		Run(func(ctx *cli.Context) error {
			client, _, err := parseGlobalFlags(ctx).client()
			if err != nil {
				return cli.Errorf("%v", err)
			}
			goCtx, stop := signalContext()
			defer stop()
			oh := handle.NewOptionsListHandle()
			if _, err := client.QueryManager().OptionsList(goCtx, oh, query.WithTransaction(transactionFlag(ctx, client))); err != nil {
				return cli.Errorf("%v", err)
			}
			t := newTable("NAME", "URI")
			for _, item := range oh.Items() {
				t.add(item.Name, item.URI)
			}
			t.render(os.Stdout)
			return nil
		})

	app.Command("purge").
		Description("Delete every document matching a collection, directory or URI pattern").
		NoArgs().
		Flags(
			cli.Strings("collection", "").Help("Delete documents in a collection. Can be specified multiple times"),
			cli.String("directory", "d").Help("Delete documents under a directory"),
			cli.String("pattern", "p").Help("Delete documents whose URI matches a glob"),
			cli.String("txid", "").Help("Delete inside an open transaction"),
		).
		Run(func(ctx *cli.Context) error {
			client, _, err := parseGlobalFlags(ctx).client()
			if err != nil {
				return cli.Errorf("%v", err)
			}
			qm := client.QueryManager()
			def := qm.NewDeleteDefinition()
			def.SetCollections(ctx.Strings("collection")...)
			def.SetDirectory(ctx.String("directory"))
			def.SetURIPattern(ctx.String("pattern"))

			goCtx, stop := signalContext()
			defer stop()
			resp, err := qm.Delete(goCtx, def, query.WithTransaction(transactionFlag(ctx, client)))
			if err != nil {
				return cli.Errorf("%v", err)
			}
			for _, uri := range resp.URIs {
				fmt.Printf("%s %s\n", errorStyle.Sprint(xmark), uri)
			}
			fmt.Println(mutedStyle.Sprintf("%d deleted", resp.Deleted))
			return nil
		})
}

// printSearch renders a search response as a results table followed by any
// facets
func printSearch(w io.Writer, resp *wire.SearchResponse) {
	if resp == nil {
		return
	}
	if len(resp.Results) > 0 {
		t := newTable("#", "URI", "SCORE", "FORMAT", "SNIPPET")
		for _, r := range resp.Results {
			snippet := ""
			if len(r.Snippets) > 0 {
				snippet = strings.Join(strings.Fields(r.Snippets[0].Text), " ")
			}
			t.add(strconv.FormatInt(r.Index, 10), r.URI, strconv.FormatFloat(r.Score, 'f', -1, 64), r.Format.String(), snippet)
		}
		t.render(w)
	}
	for _, f := range resp.Facets {
		fmt.Fprintln(w)
		t := newTable(strings.ToUpper(f.Name), "COUNT")
		for _, v := range f.Values {
			t.add(v.Name, strconv.FormatInt(v.Count, 10))
		}
		t.render(w)
	}
	if resp.Metrics != nil {
		fmt.Fprintln(w, mutedStyle.Sprintf("query %.2fms, snippets %.2fms, total %.2fms",
			resp.Metrics.QueryResolutionMillis, resp.Metrics.SnippetResolutionMillis, resp.Metrics.TotalMillis))
	}
	end := resp.Start + int64(len(resp.Results)) - 1
	if len(resp.Results) == 0 {
		fmt.Fprintln(w, mutedStyle.Sprintf("no matches of %d", resp.Total))
		return
	}
	fmt.Fprintln(w, mutedStyle.Sprintf("%d-%d of %d", resp.Start, end, resp.Total))
}
