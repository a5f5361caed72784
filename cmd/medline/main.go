// Command medline converts MEDLINE tag-format citation files to and from
// canonical JSON records, and keeps a local SQLite library of records.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/medline/core/errors"
	"github.com/FocuswithJustin/medline/core/medline"
	"github.com/FocuswithJustin/medline/internal/codec"
	"github.com/FocuswithJustin/medline/internal/config"
	"github.com/FocuswithJustin/medline/internal/library"
	"github.com/FocuswithJustin/medline/internal/logging"
	"github.com/FocuswithJustin/medline/internal/sources"
)

const version = "0.1.0"

// stdout receives command output; tests replace it.
var stdout io.Writer = os.Stdout

// appCtx is cancelled on interrupt.
var appCtx = context.Background()

// CLI defines the command-line interface for medline.
var CLI struct {
	// Global flags
	Config      string `name:"config" short:"c" help:"YAML settings file" type:"path"`
	LogLevel    string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat   string `name:"log-format" help:"Log format (text, json)"`
	DefaultType string `name:"default-type" help:"Canonical type written for records with no MEDLINE label"`

	Parse   ParseCmd   `cmd:"" help:"Parse a MEDLINE file into JSON records"`
	Emit    EmitCmd    `cmd:"" help:"Write JSON records as MEDLINE"`
	Convert ConvertCmd `cmd:"" help:"Normalize a MEDLINE file (parse, then emit)"`
	Import  ImportCmd  `cmd:"" help:"Import a MEDLINE file into the library"`
	Export  ExportCmd  `cmd:"" help:"Export the library as MEDLINE"`
	Show    ShowCmd    `cmd:"" help:"Print library records by id or PMID as MEDLINE"`
	Count   CountCmd   `cmd:"" help:"Print the number of library records"`
	Detect  DetectCmd  `cmd:"" help:"Detect whether a file is MEDLINE"`
	Tables  TablesCmd  `cmd:"" help:"Print the tag and type translation tables"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// loadConfig resolves settings from the config file, the environment and
// the global flags, then configures logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithOverrides(CLI.Config, config.Overrides{
		DefaultType: CLI.DefaultType,
		LogLevel:    CLI.LogLevel,
		LogFormat:   CLI.LogFormat,
	})
	if err != nil {
		return nil, err
	}
	cfg.InitLogging()
	return cfg, nil
}

// createOutput opens path for writing; StdioPath goes to stdout.
func createOutput(path string) (*sources.Writer, error) {
	if path == sources.StdioPath {
		return sources.NewWriter(stdout, sources.CompressionNone)
	}
	return sources.Create(path)
}

// emitTo writes content to path, closing the output whatever happens.
func emitTo(ctx context.Context, path string, cfg *config.Config, content any) (medline.Stats, error) {
	w, err := createOutput(path)
	if err != nil {
		return medline.Stats{}, err
	}
	start := time.Now()
	stats, err := medline.Emit(ctx, w, medline.Options{
		Content:     content,
		DefaultType: cfg.DefaultType,
		Name:        path,
	})
	if err != nil {
		w.Close()
		return stats, err
	}
	logging.EmitComplete(ctx, path, stats.Records, stats.Batches, stats.Bytes, time.Since(start))
	return stats, nil
}

// ParseCmd parses a MEDLINE file into record documents.
type ParseCmd struct {
	Path   string `arg:"" help:"MEDLINE file, optionally compressed ('-' for stdin)"`
	Out    string `short:"o" default:"-" help:"Output file; the suffix selects compression"`
	Format string `short:"f" default:"json" enum:"json,json-array,yaml,cbor" help:"Output document format (json, json-array, yaml, cbor)"`
	Array  bool   `help:"Shorthand for --format=json-array"`
}

func (c *ParseCmd) Run() error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	ctx := logging.WithRunID(appCtx, "")

	format, err := codec.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	if c.Array {
		format = codec.FormatJSONArray
	}

	r, err := sources.Open(c.Path)
	if err != nil {
		return err
	}
	defer r.Close()

	w, err := createOutput(c.Out)
	if err != nil {
		return err
	}
	defer w.Close()
	enc, err := codec.NewWriter(w, format)
	if err != nil {
		return err
	}

	start := time.Now()
	n := 0
	for rec, err := range medline.Records(ctx, medline.ReaderSource(r).Named(c.Path)) {
		if err != nil {
			logging.CommandError(ctx, "parse", err)
			return err
		}
		if err := enc.Write(rec); err != nil {
			return errors.NewIO("write", c.Out, err)
		}
		n++
	}
	if err := enc.Close(); err != nil {
		return errors.NewIO("write", c.Out, err)
	}
	if err := w.Close(); err != nil {
		return errors.NewIO("close", c.Out, err)
	}
	logging.ParseComplete(ctx, c.Path, n, time.Since(start))
	return nil
}

// EmitCmd writes record documents as MEDLINE.
type EmitCmd struct {
	Path     string `arg:"" help:"Record documents: JSON, YAML or CBOR ('-' for stdin)"`
	Out      string `short:"o" default:"-" help:"Output file; the suffix selects compression"`
	InFormat string `name:"in-format" default:"auto" enum:"auto,json,json-array,yaml,cbor" help:"Input document format"`
}

func (c *EmitCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := logging.WithRunID(appCtx, "")

	format, err := codec.ParseFormat(c.InFormat)
	if err != nil {
		return err
	}

	r, err := sources.Open(c.Path)
	if err != nil {
		return err
	}
	defer r.Close()

	recs, err := codec.ReadAll(r, format, c.Path)
	if err != nil {
		return err
	}
	if _, err := emitTo(ctx, c.Out, cfg, recs); err != nil {
		logging.CommandError(ctx, "emit", err)
		return err
	}
	return nil
}

// ConvertCmd parses a MEDLINE file and writes it back out normalized:
// unknown tags dropped, continuations joined, types translated.
type ConvertCmd struct {
	Path string `arg:"" help:"MEDLINE file, optionally compressed ('-' for stdin)"`
	Out  string `short:"o" default:"-" help:"Output file; the suffix selects compression"`
}

func (c *ConvertCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := logging.WithRunID(appCtx, "")

	r, err := sources.Open(c.Path)
	if err != nil {
		return err
	}
	defer r.Close()

	p, stop := medline.SeqProducer(medline.Records(ctx, medline.ReaderSource(r).Named(c.Path)))
	defer stop()

	if _, err := emitTo(ctx, c.Out, cfg, p); err != nil {
		logging.CommandError(ctx, "convert", err)
		return err
	}
	return nil
}

// ImportCmd imports a MEDLINE file into the library.
type ImportCmd struct {
	Path string `arg:"" help:"MEDLINE file, optionally compressed ('-' for stdin)"`
	DB   string `name:"db" help:"Library database (defaults to the configured database)"`
}

func (c *ImportCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := logging.WithRunID(appCtx, "")

	r, err := sources.Open(c.Path)
	if err != nil {
		return err
	}
	defer r.Close()

	lib, err := library.Open(ctx, dbPath(c.DB, cfg))
	if err != nil {
		return err
	}
	defer lib.Close()

	stats, err := lib.Import(ctx, medline.Records(ctx, medline.ReaderSource(r).Named(c.Path)))
	if err != nil {
		logging.CommandError(ctx, "import", err)
		return err
	}
	fmt.Fprintf(stdout, "Imported %d records (%d duplicates skipped)\n", stats.Inserted, stats.Skipped)
	return nil
}

// ExportCmd writes every library record as MEDLINE, page by page.
type ExportCmd struct {
	DB       string `name:"db" help:"Library database (defaults to the configured database)"`
	Out      string `short:"o" default:"-" help:"Output file; the suffix selects compression"`
	PageSize int    `name:"page-size" help:"Records fetched per batch (defaults to the configured page size)"`
}

func (c *ExportCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := logging.WithRunID(appCtx, "")

	lib, err := library.Open(ctx, dbPath(c.DB, cfg))
	if err != nil {
		return err
	}
	defer lib.Close()

	pageSize := cfg.PageSize
	if c.PageSize > 0 {
		pageSize = c.PageSize
	}
	if _, err := emitTo(ctx, c.Out, cfg, lib.Producer(pageSize)); err != nil {
		logging.CommandError(ctx, "export", err)
		return err
	}
	return nil
}

// ShowCmd prints stored records selected by library id or by PMID.
type ShowCmd struct {
	ID   string `name:"id" xor:"key" help:"Library record id"`
	PMID string `name:"pmid" xor:"key" help:"PubMed identifier; every stored record with it is printed"`
	DB   string `name:"db" help:"Library database (defaults to the configured database)"`
	Out  string `short:"o" default:"-" help:"Output file; the suffix selects compression"`
}

func (c *ShowCmd) Run() error {
	if c.ID == "" && c.PMID == "" {
		return errors.NewValidation("key", "one of --id or --pmid is required")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := logging.WithRunID(appCtx, "")

	lib, err := library.Open(ctx, dbPath(c.DB, cfg))
	if err != nil {
		return err
	}
	defer lib.Close()

	var recs []*medline.Record
	if c.ID != "" {
		rec, err := lib.Get(ctx, c.ID)
		if err != nil {
			return err
		}
		recs = append(recs, rec)
	} else {
		recs, err = lib.FindByRecNo(ctx, c.PMID)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			return errors.NewNotFound("record", c.PMID)
		}
	}

	if _, err := emitTo(ctx, c.Out, cfg, recs); err != nil {
		logging.CommandError(ctx, "show", err)
		return err
	}
	return nil
}

// CountCmd prints the number of stored records.
type CountCmd struct {
	DB string `name:"db" help:"Library database (defaults to the configured database)"`
}

func (c *CountCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := logging.WithRunID(appCtx, "")

	lib, err := library.Open(ctx, dbPath(c.DB, cfg))
	if err != nil {
		return err
	}
	defer lib.Close()

	n, err := lib.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%d records\n", n)
	return nil
}

func dbPath(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	return cfg.Database
}

// DetectCmd reports whether a file is MEDLINE.
type DetectCmd struct {
	Path string `arg:"" help:"File to inspect" type:"existingfile"`
	JSON bool   `help:"Print the result as JSON"`
}

func (c *DetectCmd) Run() error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	result := sources.Detect(c.Path)
	if c.JSON {
		return json.NewEncoder(stdout).Encode(result)
	}
	if result.Detected {
		fmt.Fprintf(stdout, "%s: %s (compression: %s)\n", c.Path, result.Format, result.Compression)
	} else {
		fmt.Fprintf(stdout, "%s: not detected\n", c.Path)
	}
	fmt.Fprintf(stdout, "  %s\n", result.Reason)
	return nil
}

// TablesCmd prints the tag and type translation tables.
type TablesCmd struct{}

func (c *TablesCmd) Run() error {
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TAG\tFIELD\tARRAY")
	for _, f := range medline.Fields() {
		fmt.Fprintf(tw, "%q\t%s\t%v\n", f.Tag, f.Name, f.IsArray)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "LABEL\tTYPE")
	for _, e := range medline.Types() {
		fmt.Fprintf(tw, "%s\t%s\n", e.Label, e.Tag)
	}
	return tw.Flush()
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := library.GetInfo()
	fmt.Fprintf(stdout, "medline version %s (sqlite: %s, %s driver, %s)\n",
		version, info.DriverName, info.DriverType, info.Package)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	appCtx = ctx

	kctx := kong.Parse(&CLI,
		kong.Name("medline"),
		kong.Description("MEDLINE citation format converter"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := kctx.Run()
	kctx.FatalIfErrorf(err)
}
