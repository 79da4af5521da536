// Package media wraps the system binaries and image plumbing used by the
// thumbnail pipeline. Rendering shells out to pdftoppm (poppler-utils), which
// must be present in the worker runtime.
package media

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "image/jpeg"
	"image/png"

	"github.com/evarahealth/clinic-backend/internal/platform/logger"
)

type Renderer interface {
	AssertReady(ctx context.Context) error
	// RenderFirstPage rasterizes page 1 of the given PDF bytes, scaled so the
	// output width equals targetWidth (height follows the page aspect).
	RenderFirstPage(ctx context.Context, pdf []byte, targetWidth int) (image.Image, error)
}

type pdfRenderer struct {
	log            *logger.Logger
	pdftoppmPath   string
	workRoot       string
	defaultTimeout time.Duration
}

func NewPDFRenderer(log *logger.Logger) Renderer {
	return &pdfRenderer{
		log:            log.With("service", "PDFRenderer"),
		pdftoppmPath:   "pdftoppm",
		workRoot:       filepath.Join(os.TempDir(), "clinic-media"),
		defaultTimeout: 2 * time.Minute,
	}
}

func (r *pdfRenderer) AssertReady(ctx context.Context) error {
	if _, err := exec.LookPath(r.pdftoppmPath); err != nil {
		return fmt.Errorf("missing required binary %q in PATH: %w", r.pdftoppmPath, err)
	}
	if err := os.MkdirAll(r.workRoot, 0o755); err != nil {
		return fmt.Errorf("create workRoot: %w", err)
	}
	return nil
}

func (r *pdfRenderer) RenderFirstPage(ctx context.Context, pdf []byte, targetWidth int) (image.Image, error) {
	if err := r.AssertReady(ctx); err != nil {
		return nil, err
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("empty pdf payload")
	}
	if targetWidth <= 0 {
		return nil, fmt.Errorf("targetWidth must be positive, got %d", targetWidth)
	}

	outDir, err := os.MkdirTemp(r.workRoot, "thumb-")
	if err != nil {
		return nil, fmt.Errorf("mkdtemp: %w", err)
	}
	defer os.RemoveAll(outDir)

	pdfPath := filepath.Join(outDir, "input.pdf")
	if err := os.WriteFile(pdfPath, pdf, 0o644); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.defaultTimeout)
	defer cancel()

	// pdftoppm -png -f 1 -l 1 -scale-to-x W -scale-to-y -1 input.pdf prefix
	prefix := filepath.Join(outDir, "page")
	cmd := exec.CommandContext(ctx, r.pdftoppmPath,
		"-png",
		"-f", "1",
		"-l", "1",
		"-scale-to-x", strconv.Itoa(targetWidth),
		"-scale-to-y", "-1",
		pdfPath, prefix,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w; out=%s", err, string(out))
	}

	paths, err := globSorted(outDir, `^page-?0*1\.png$`)
	if err != nil || len(paths) == 0 {
		paths, _ = globSorted(outDir, `.*\.png$`)
		if len(paths) == 0 {
			return nil, fmt.Errorf("no image produced by pdftoppm; out=%s", string(out))
		}
	}

	f, err := os.Open(paths[0])
	if err != nil {
		return nil, fmt.Errorf("open rendered page: %w", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode rendered page: %w", err)
	}
	return img, nil
}

func globSorted(dir string, pattern string) ([]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if re.MatchString(strings.ToLower(e.Name())) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}
