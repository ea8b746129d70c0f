// Package raster converts non-image resume documents into a single rasterized
// image by shelling out to an external converter binary.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Rasterizer renders the first page of a document to PNG bytes.
type Rasterizer interface {
	RasterizeFirstPage(ctx context.Context, doc []byte, mimeType string) ([]byte, error)
}

// IsImageMime reports whether the mime type is already an image and needs no
// conversion.
func IsImageMime(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// Runner abstracts process execution for testability.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Converter rasterizes documents with a configured external binary.
type Converter struct {
	converter string
	runner    Runner
	logger    *slog.Logger

	mkdirTemp func(dir, pattern string) (string, error)
	removeAll func(path string) error
	writeFile func(name string, data []byte, perm os.FileMode) error
	readFile  func(name string) ([]byte, error)
}

// NewConverter constructs the production converter with OS dependencies.
func NewConverter(converter string, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		converter: converter,
		runner:    execRunner{},
		logger:    logger,
		mkdirTemp: os.MkdirTemp,
		removeAll: os.RemoveAll,
		writeFile: os.WriteFile,
		readFile:  os.ReadFile,
	}
}

// RasterizeFirstPage writes the document to a temp workspace, renders page 1
// to PNG with the configured converter, and returns the PNG bytes.
func (c *Converter) RasterizeFirstPage(ctx context.Context, doc []byte, mimeType string) ([]byte, error) {
	if IsImageMime(mimeType) {
		return doc, nil
	}
	if mimeType != "application/pdf" {
		return nil, fmt.Errorf("unsupported resume format: %s", mimeType)
	}

	tmpDir, err := c.mkdirTemp("", "interviewd-raster-*")
	if err != nil {
		return nil, fmt.Errorf("create raster workspace: %w", err)
	}
	defer func() { _ = c.removeAll(tmpDir) }()

	in := filepath.Join(tmpDir, "resume.pdf")
	out := filepath.Join(tmpDir, "resume.png")
	if err := c.writeFile(in, doc, 0o600); err != nil {
		return nil, fmt.Errorf("write raster input: %w", err)
	}

	switch c.converter {
	case "pdftoppm":
		outBase := strings.TrimSuffix(out, ".png")
		if _, errb, err := c.runner.Run(ctx, "pdftoppm", "-png", "-f", "1", "-l", "1", "-singlefile", in, outBase); err != nil {
			c.logger.Error("raster.pdftoppm.failed", "stderr", string(errb), "error", err)
			return nil, fmt.Errorf("pdftoppm failed: %w", err)
		}
	case "magick":
		if _, errb, err := c.runner.Run(ctx, "magick", in+"[0]", out); err != nil {
			c.logger.Error("raster.magick.failed", "stderr", string(errb), "error", err)
			return nil, fmt.Errorf("magick convert failed: %w", err)
		}
	default:
		return nil, fmt.Errorf("PDF not supported: set RASTER_CONVERTER to one of: pdftoppm | magick")
	}

	png, err := c.readFile(out)
	if err != nil {
		return nil, fmt.Errorf("rasterization produced no output: %w", err)
	}
	return png, nil
}

// NewConverterForTests constructs a converter with injectable dependencies.
func NewConverterForTests(
	converter string,
	runner Runner,
	mkdirTemp func(dir, pattern string) (string, error),
	removeAll func(path string) error,
	writeFile func(name string, data []byte, perm os.FileMode) error,
	readFile func(name string) ([]byte, error),
) *Converter {
	return &Converter{
		converter: converter,
		runner:    runner,
		logger:    slog.Default(),
		mkdirTemp: mkdirTemp,
		removeAll: removeAll,
		writeFile: writeFile,
		readFile:  readFile,
	}
}
