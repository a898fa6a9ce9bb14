package main

import (
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/andybalholm/unpack/transcode"
)

const (
	EnvVarPrefix = "UNPACK"

	MinBufferSize = 16
	MaxBufferSize = 16 << 20
)

// VERSION gets set during build
var VERSION = "0.0.0"

type CLI struct {
	Input  string `kong:"arg,optional,help='Compressed input file (- for stdin)',default='-'"`
	Output string `kong:"help='Output file (- for stdout)',default='-',short='o'"`

	Container   string `kong:"help='Container around the DEFLATE stream',enum='raw,zlib,gzip,auto',default='auto',short='c'"`
	Format      string `kong:"help='Output format',enum='raw,text,snappy,brotli,lz4,zstd',default='raw',short='f'"`
	Level       int    `kong:"help='Compression level for the output format (0 for its default)',short='l'"`
	KeepMatches bool   `kong:"help='Reuse the DEFLATE matches for snappy and lz4 output',short='k'"`
	Unescaped   bool   `kong:"help='Write literals in text output without escaping them',short='u'"`
	BufferSize  int    `kong:"help='Size of input reads',default='32768',short='b'"`

	Debug   bool             `kong:"help='Enable debug output',short='d'"`
	Quiet   bool             `kong:"help='Disable showing pre/post output',short='q'"`
	Version kong.VersionFlag `help:"Show version and exit" short:"v" env:"-"`
}

// NewConfig reads the configuration from args and the environment, after
// loading .env if there is one.
func NewConfig(args []string, options ...kong.Option) (*CLI, error) {
	// Attempt to load .env
	_ = godotenv.Load(".env")

	cli, err := readCLIArgs(args, options...)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing CLI args")
	}
	return cli, nil
}

func readCLIArgs(args []string, options ...kong.Option) (*CLI, error) {
	cli := &CLI{}
	options = append([]kong.Option{
		kong.Name("unpack"),
		kong.Description("Decompress a DEFLATE, zlib or gzip stream, optionally re-encoding it"),
		kong.DefaultEnvars(EnvVarPrefix),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars{
			"version": VERSION,
		},
	}, options...)

	parser, err := kong.New(cli, options...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create parser")
	}
	if _, err := parser.Parse(args); err != nil {
		return nil, err
	}

	if err := validateCLIArgs(cli); err != nil {
		return nil, errors.Wrap(err, "error validating args")
	}
	return cli, nil
}

func validateCLIArgs(cli *CLI) error {
	if cli == nil {
		return errors.New("config cannot be nil")
	}

	if cli.Input == "" {
		return errors.New("input cannot be empty")
	}

	if cli.Output == "" {
		return errors.New("output cannot be empty")
	}

	if cli.BufferSize < MinBufferSize || cli.BufferSize > MaxBufferSize {
		return errors.Errorf("buffer size must be between %d and %d", MinBufferSize, MaxBufferSize)
	}

	if cli.Level < 0 {
		return errors.New("level cannot be negative")
	}

	if cli.KeepMatches && cli.Format != string(transcode.FormatSnappy) && cli.Format != string(transcode.FormatLZ4) {
		return errors.Errorf("--keep-matches only applies to snappy and lz4 output, not %s", cli.Format)
	}

	return nil
}

// Options converts the CLI settings for transcode.Run.
func (c *CLI) Options() transcode.Options {
	return transcode.Options{
		Container:   transcode.Container(c.Container),
		Format:      transcode.Format(c.Format),
		Level:       c.Level,
		KeepMatches: c.KeepMatches,
		Unescaped:   c.Unescaped,
		BufferSize:  c.BufferSize,
	}
}
