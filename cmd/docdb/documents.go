package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/deepnoodle-ai/docdb"
	"github.com/deepnoodle-ai/docdb/document"
	"github.com/deepnoodle-ai/docdb/handle"
	"github.com/deepnoodle-ai/docdb/rest"
	"github.com/deepnoodle-ai/docdb/wire"
	"github.com/deepnoodle-ai/wonton/cli"
)

// transactionFlag returns the transaction named by --txid, or nil
func transactionFlag(ctx *cli.Context, client *docdb.Client) *rest.Transaction {
	txid := ctx.String("txid")
	if txid == "" {
		return nil
	}
	return rest.NewTransaction(txid, "", time.Time{}, client.Services())
}

// fileHandle returns a handle holding the content of a local file. An
// unknown format is inferred from the file name.
func fileHandle(path string, data []byte, format wire.Format) (*handle.BytesHandle, error) {
	if format == wire.FormatUnknown {
		format = wire.FormatFromPath(path)
	}
	if format == wire.FormatUnknown {
		format = wire.FormatBinary
	}
	h := handle.NewBytesHandle(data)
	if err := h.SetFormat(format); err != nil {
		return nil, err
	}
	if format == wire.FormatBinary || wire.FormatFromPath(path) == format {
		h.SetMimeType(wire.MimeTypeFromPath(path))
	}
	return h, nil
}

// upload writes one local file. Binary content goes through the binary
// manager so that the extraction policy applies.
func upload(ctx context.Context, client *docdb.Client, path, uri string, format wire.Format, opts ...document.Option) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	h, err := fileHandle(path, data, format)
	if err != nil {
		return err
	}
	if h.Format() == wire.FormatBinary {
		return client.BinaryManager().Write(ctx, uri, h, opts...)
	}
	return client.GenericManager().Write(ctx, uri, h, opts...)
}

func registerDocumentCommands(app *cli.App) {
	app.Command("get").
		Description("Print a document").
		Args("uri").
		Flags(
			cli.String("output", "o").Help("Write the content to a file instead of stdout"),
			cli.Bool("metadata", "m").Help("Print the metadata as JSON instead of the content"),
			cli.Int("start", "").Help("Byte offset to start reading at"),
			cli.Int("length", "").Help("Number of bytes to read (0 reads to the end)"),
			cli.String("txid", "").Help("Read inside an open transaction"),
		).
		Run(func(ctx *cli.Context) error {
			client, _, err := parseGlobalFlags(ctx).client()
			if err != nil {
				return cli.Errorf("%v", err)
			}
			goCtx, stop := signalContext()
			defer stop()
			uri := ctx.Arg(0)
			tx := transactionFlag(ctx, client)

			if ctx.Bool("metadata") {
				mh := handle.NewMetadataHandle()
				if _, err := client.GenericManager().ReadMetadata(goCtx, uri, mh, document.WithTransaction(tx)); err != nil {
					return cli.Errorf("%v", err)
				}
				return printJSON(os.Stdout, mh.Get())
			}

			h := handle.NewBytesHandle()
			start, length := int64(ctx.Int("start")), int64(ctx.Int("length"))
			if _, err := client.BinaryManager().ReadRange(goCtx, uri, h, start, length, document.WithTransaction(tx)); err != nil {
				return cli.Errorf("%v", err)
			}
			if out := ctx.String("output"); out != "" {
				return os.WriteFile(out, h.Get(), 0644)
			}
			_, err = os.Stdout.Write(h.Get())
			return err
		})

	app.Command("put").
		Description("Store a local file as a document").
		Args("file", "uri").
		Flags(
			cli.String("format", "f").Help("Content format (xml, json, text, binary); inferred from the file name by default"),
			cli.Strings("collection", "").Help("Add the document to a collection. Can be specified multiple times"),
			cli.Bool("extract", "").Help("Ask the server to extract properties from binary content"),
			cli.String("txid", "").Help("Write inside an open transaction"),
		).
		Run(func(ctx *cli.Context) error {
			client, _, err := parseGlobalFlags(ctx).client()
			if err != nil {
				return cli.Errorf("%v", err)
			}
			format, err := wire.ParseFormat(ctx.String("format"))
			if err != nil {
				return cli.Errorf("%v", err)
			}
			if ctx.Bool("extract") {
				client.SetMetadataExtraction(document.ExtractProperties)
			}
			goCtx, stop := signalContext()
			defer stop()

			path, uri := ctx.Arg(0), ctx.Arg(1)
			opts := []document.Option{document.WithTransaction(transactionFlag(ctx, client))}
			opts = append(opts, collectionOptions(ctx.Strings("collection"))...)
			if err := upload(goCtx, client, path, uri, format, opts...); err != nil {
				return cli.Errorf("%v", err)
			}
			fmt.Printf("%s %s %s\n", successStyle.Sprint(checkmark), path, mutedStyle.Sprint(arrow+" "+uri))
			return nil
		})

	app.Command("rm").
		Description("Delete a document").
		Args("uri").
		Flags(
			cli.String("txid", "").Help("Delete inside an open transaction"),
		).
		Run(func(ctx *cli.Context) error {
			client, _, err := parseGlobalFlags(ctx).client()
			if err != nil {
				return cli.Errorf("%v", err)
			}
			goCtx, stop := signalContext()
			defer stop()
			if err := client.GenericManager().Delete(goCtx, ctx.Arg(0), document.WithTransaction(transactionFlag(ctx, client))); err != nil {
				return cli.Errorf("%v", err)
			}
			return nil
		})

	app.Command("head").
		Description("Print the descriptor of a document").
		Args("uri").
		Flags(
			cli.String("txid", "").Help("Look inside an open transaction"),
		).
		Run(func(ctx *cli.Context) error {
			client, _, err := parseGlobalFlags(ctx).client()
			if err != nil {
				return cli.Errorf("%v", err)
			}
			goCtx, stop := signalContext()
			defer stop()
			uri := ctx.Arg(0)
			d, err := client.GenericManager().Exists(goCtx, uri, document.WithTransaction(transactionFlag(ctx, client)))
			if err != nil {
				return cli.Errorf("%v", err)
			}
			if d == nil {
				return cli.Errorf("%s does not exist", uri)
			}
			printDescriptor(os.Stdout, d)
			return nil
		})
}

// collectionOptions returns the write options adding a document to
// collections. No options are returned for an empty list.
func collectionOptions(collections []string) []document.Option {
	if len(collections) == 0 {
		return nil
	}
	meta := wire.NewMetadata()
	meta.AddCollections(collections...)
	return []document.Option{
		document.WithMetadata(handle.NewMetadataHandle(meta)),
		document.WithCategories(wire.CategoryCollections),
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDescriptor(w io.Writer, d *wire.Descriptor) {
	rows := [][]string{
		{"uri", d.URI},
		{"format", d.Format.String()},
		{"mime type", d.MimeType},
		{"bytes", fmt.Sprint(d.ByteLength)},
		{"version", fmt.Sprint(d.Version)},
	}
	if !d.UpdatedAt.IsZero() {
		rows = append(rows, []string{"updated", d.UpdatedAt.Local().Format(time.RFC3339)})
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%s %s\n", headerStyle.Sprint(padRight(row[0], 10)), row[1])
	}
}
