// Command unpack decompresses a DEFLATE stream (raw, zlib or gzip) and writes
// the data as is, as a text view of its matches, or re-encoded as snappy,
// brotli, lz4 or zstd.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/andybalholm/unpack/transcode"
)

func main() {
	cfg, err := NewConfig(os.Args[1:])
	if err != nil {
		fmt.Println("ERROR: ", err)
		os.Exit(1)
	}

	if cfg.Debug {
		logrus.Info("debug mode enabled")
		logrus.SetLevel(logrus.DebugLevel)
	}

	if !cfg.Quiet {
		displayConfig(cfg)
	}

	stats, err := run(cfg, os.Stdin, os.Stdout)
	if err != nil {
		logrus.Errorf("error during decompression: %s", err)
		os.Exit(1)
	}

	if !cfg.Quiet {
		displayStats(stats)
	}
}

func run(cfg *CLI, stdin io.Reader, stdout io.Writer) (*transcode.Stats, error) {
	var src io.Reader = stdin
	if cfg.Input != "-" {
		f, err := os.Open(cfg.Input)
		if err != nil {
			return nil, errors.Wrap(err, "unable to open input")
		}
		defer f.Close()
		src = f
	}

	dst := stdout
	var outFile *os.File
	if cfg.Output != "-" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return nil, errors.Wrap(err, "unable to create output")
		}
		defer f.Close()
		dst = f
		outFile = f
	}
	w := bufio.NewWriterSize(dst, 64*1024)

	opts := cfg.Options()
	opts.Log = logrus.WithField("pkg", "unpack")
	stats, err := transcode.Run(w, src, opts)
	if err != nil {
		_ = w.Flush()
		return nil, err
	}

	if err := w.Flush(); err != nil {
		return nil, errors.Wrap(err, "unable to write output")
	}
	if outFile != nil {
		if err := outFile.Close(); err != nil {
			return nil, errors.Wrap(err, "unable to close output")
		}
	}
	return stats, nil
}

func displayConfig(cfg *CLI) {
	if cfg == nil {
		return
	}

	logrus.Info("unpack settings:")
	logrus.Infof("  version: %s", VERSION)
	logrus.Infof("  debug: %v", cfg.Debug)
	logrus.Infof("  input: %s", cfg.Input)
	logrus.Infof("  output: %s", cfg.Output)
	logrus.Infof("  container: %s", cfg.Container)
	logrus.Infof("  format: %s", cfg.Format)
	logrus.Infof("  level: %d", cfg.Level)
	logrus.Infof("  keep matches: %v", cfg.KeepMatches)
	logrus.Infof("  buffer size: %d", cfg.BufferSize)
	logrus.Info("")
}

func displayStats(s *transcode.Stats) {
	logrus.Info("done:")
	logrus.Infof("  container: %s", s.Container)
	logrus.Infof("  compressed: %d bytes (%d header + %d DEFLATE)", s.HeaderBytes+s.InputBytes, s.HeaderBytes, s.InputBytes)
	logrus.Infof("  blocks: %d", s.Blocks)
	logrus.Infof("  decompressed: %d bytes, xxhash32 %08x", s.OutputBytes, s.Checksum)
	logrus.Infof("  written: %d bytes", s.EncodedBytes)
	logrus.Infof("  took: %s", s.Duration)
}
