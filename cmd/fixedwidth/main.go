// Command fixedwidth converts between fixed-width text and JSON documents
// using a YAML layout.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"github.com/ianlopshire/go-fixedwidth/v2"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		printUsage(stderr)
		return errors.New("subcommand required")
	}

	switch subcommand := args[0]; subcommand {
	case "parse":
		return runParse(args[1:], stdin, stdout, stderr)
	case "format":
		return runFormat(args[1:], stdin, stdout, stderr)
	case "-h", "--help", "help":
		printUsage(stderr)
		return nil
	default:
		printUsage(stderr)
		return errors.Errorf("unknown subcommand: %q", subcommand)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `Usage: fixedwidth <subcommand> [flags] [file]

Subcommands:
  parse    Read fixed-width text and write one JSON document per record
  format   Read JSON documents (objects or arrays) and write fixed-width text

Layouts are YAML files, or JSON with comments when named *.json or *.jsonc.
Input files ending in .gz, .zst or .lz4 are decompressed.

Run 'fixedwidth <subcommand> --help' for subcommand flags.
`)
}

// commonFlags are shared by every subcommand.
type commonFlags struct {
	layout  string
	eol     string
	verbose bool
}

func (c *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&c.layout, "layout", "l", "", "YAML layout file (required)")
	fs.StringVar(&c.eol, "eol", "", `line terminator, overrides the layout ("\n", "\r\n" or "\r")`)
	fs.BoolVarP(&c.verbose, "verbose", "v", false, "log debug information to stderr")
}

func (c *commonFlags) setup(stderr io.Writer) (*fixedwidth.Layout, *slog.Logger, error) {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if c.layout == "" {
		return nil, nil, errors.New("--layout is required")
	}
	opts, err := readLayout(c.layout)
	if err != nil {
		return nil, nil, err
	}
	if c.eol != "" {
		opts.EOL = unescapeEOL(c.eol)
	}
	layout, err := fixedwidth.Compile(opts)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("layout compiled",
		slog.String("path", c.layout),
		slog.String("encoding", layout.Encoding()),
		slog.Int("width", layout.Width()),
		slog.String("shape", layout.Shape().String()),
		slog.Int("fields", len(layout.Fields())),
	)
	return layout, logger, nil
}

// readLayout reads a YAML layout. JSON layouts may carry comments and
// trailing commas; once cleaned they are valid YAML.
func readLayout(path string) (fixedwidth.Options, error) {
	switch filepath.Ext(path) {
	case ".json", ".jsonc":
		data, err := os.ReadFile(path)
		if err != nil {
			return fixedwidth.Options{}, errors.Wrap(err, "reading layout")
		}
		return fixedwidth.LoadOptions(bytes.NewReader(jsonc.ToJSON(data)))
	}
	return fixedwidth.ReadOptionsFile(path)
}

func unescapeEOL(s string) string {
	switch s {
	case `\n`:
		return "\n"
	case `\r\n`:
		return "\r\n"
	case `\r`:
		return "\r"
	}
	return s
}

// openInput returns the file named by the only positional argument, or
// stdin when there is none or it is "-".
func openInput(fs *pflag.FlagSet, stdin io.Reader) (io.Reader, func() error, error) {
	switch fs.NArg() {
	case 0:
		return stdin, func() error { return nil }, nil
	case 1:
		if fs.Arg(0) == "-" {
			return stdin, func() error { return nil }, nil
		}
		return openFile(fs.Arg(0))
	default:
		return nil, nil, errors.Errorf("expected at most one input file, got %d", fs.NArg())
	}
}

// openFile opens path, decompressing it according to its extension.
func openFile(path string) (io.Reader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	switch filepath.Ext(path) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, errors.Wrapf(err, "opening %s", path)
		}
		return zr, func() error {
			zr.Close()
			return f.Close()
		}, nil
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, errors.Wrapf(err, "opening %s", path)
		}
		return zr, func() error {
			zr.Close()
			return f.Close()
		}, nil
	case ".lz4":
		return lz4.NewReader(f), f.Close, nil
	}
	return f, f.Close, nil
}

func runParse(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var common commonFlags
	fs := pflag.NewFlagSet("parse", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	layout, logger, err := common.setup(stderr)
	if err != nil {
		return err
	}
	in, closeInput, err := openInput(fs, stdin)
	if err != nil {
		return err
	}
	defer closeInput()

	out := bufio.NewWriter(stdout)
	enc := json.NewEncoder(out)
	dec := fixedwidth.NewDecoder(in, layout)
	defer dec.Close()

	count := 0
	for {
		rec, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep the records parsed before the bad line.
			if ferr := out.Flush(); ferr != nil {
				logger.Warn("flushing output", slog.Any("error", ferr))
			}
			return err
		}
		var doc interface{} = rec.Values
		if layout.Shape() == fixedwidth.ShapeKeyed {
			doc = rec.Map()
		}
		if err := enc.Encode(doc); err != nil {
			return err
		}
		count++
	}
	logger.Debug("parsed records", slog.Int("records", count))
	return out.Flush()
}

func runFormat(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var common commonFlags
	fs := pflag.NewFlagSet("format", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	layout, logger, err := common.setup(stderr)
	if err != nil {
		return err
	}
	in, closeInput, err := openInput(fs, stdin)
	if err != nil {
		return err
	}
	defer closeInput()

	dec := json.NewDecoder(in)
	dec.UseNumber()
	enc := fixedwidth.NewEncoder(stdout, layout)

	count := 0
	for {
		var doc interface{}
		if err := dec.Decode(&doc); err == io.EOF {
			break
		} else if err != nil {
			return errors.Wrapf(err, "reading document %d", count+1)
		}
		if err := enc.Encode(doc); err != nil {
			return err
		}
		count++
	}
	logger.Debug("formatted records", slog.Int("records", count))
	return enc.Close()
}
