// Package render assembles the print-ready PDF: it lays images out on a
// page grid, converts them to CMYK, draws the grid lines, and publishes
// the finished file atomically.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wudi/gridpdf/builder"
	"github.com/wudi/gridpdf/cmm"
	"github.com/wudi/gridpdf/doc"
	"github.com/wudi/gridpdf/geo"
	"github.com/wudi/gridpdf/loader"
	"github.com/wudi/gridpdf/observability"
	"github.com/wudi/gridpdf/preview"
	"github.com/wudi/gridpdf/writer"
)

// ErrNoImages is returned when a job has an empty image list. The check
// runs before any geometry or file work.
var ErrNoImages = errors.New("no images to render")

// renderDPI sets the pixel density images are downscaled to before
// embedding. Sources smaller than the cell are embedded as is.
const renderDPI = 300

// LineStyle controls the grid lines drawn over the image cells.
type LineStyle struct {
	Visible bool
	Color   doc.RGB
	Width   float64
}

// Job describes one export.
type Job struct {
	Images      []string
	Page        geo.PageSize
	Cell        geo.CellSpec
	Lines       LineStyle
	ProfilePath string
	Intent      cmm.RenderingIntent
	Output      string
	// WorkDir is the parent for the scratch directory; empty means the
	// system temp dir.
	WorkDir string
	// Progress, if set, receives percentages from 0 to 100. Values never
	// decrease and the final call is always 100.
	Progress func(percent int)
}

// Result summarizes a finished export.
type Result struct {
	Layout    geo.Layout
	Cells     int
	Rendered  int
	Skipped   []string
	ColorMode string
	Output    string
}

// Renderer runs export jobs. Safe to reuse across jobs.
type Renderer struct {
	images *loader.Registry
	pdf    writer.Writer
	log    observability.Logger
}

func New(images *loader.Registry, log observability.Logger) *Renderer {
	if images == nil {
		images = loader.Default()
	}
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Renderer{images: images, pdf: writer.NewWriter(), log: log}
}

// Render produces the grid PDF for job. Individual cells that fail to
// load or convert are skipped and reported in the result; the job only
// fails for configuration errors, write errors, or cancellation. On any
// failure no file appears at job.Output.
func (r *Renderer) Render(ctx context.Context, job Job) (*Result, error) {
	if len(job.Images) == 0 {
		return nil, ErrNoImages
	}
	if job.Cell.WidthMM <= 0 || job.Cell.HeightMM <= 0 {
		return nil, fmt.Errorf("cell size must be positive, got %gx%g mm", job.Cell.WidthMM, job.Cell.HeightMM)
	}
	if job.Output == "" {
		return nil, errors.New("output path required")
	}

	conv, err := r.newConverter(job)
	if err != nil {
		return nil, err
	}

	layout := geo.ComputeLayout(job.Page, job.Cell)
	log := r.log.With(
		observability.String("page", job.Page.Name()),
		observability.Float64("cell_width_mm", job.Cell.WidthMM),
		observability.Float64("cell_height_mm", job.Cell.HeightMM),
		observability.Int("columns", layout.Columns),
		observability.Int("rows", layout.Rows),
		observability.String("color_mode", conv.Mode()),
	)
	log.Info("render started", observability.Int("images", len(job.Images)))

	workDir, err := os.MkdirTemp(job.WorkDir, "gridpdf-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	document, result, err := r.compose(ctx, job, layout, conv, log)
	if err != nil {
		return nil, err
	}

	pdfPath := filepath.Join(workDir, "grid.pdf")
	f, err := os.Create(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	writeErr := r.pdf.Write(ctx, document, f, writer.Config{})
	if closeErr := f.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		return nil, fmt.Errorf("write pdf: %w", writeErr)
	}

	if err := publish(pdfPath, job.Output); err != nil {
		return nil, err
	}

	result.ColorMode = conv.Mode()
	result.Output = job.Output
	log.Info("render finished",
		observability.Int("rendered", result.Rendered),
		observability.Int("skipped", len(result.Skipped)),
		observability.String("output", job.Output),
	)
	return result, nil
}

func (r *Renderer) newConverter(job Job) (*cmm.Converter, error) {
	if job.ProfilePath == "" {
		return cmm.NewNaiveConverter(), nil
	}
	prof, err := cmm.LoadProfile(job.ProfilePath)
	if err != nil {
		return nil, err
	}
	return cmm.NewICCConverter(prof.Data(), job.Intent)
}

// compose builds the single-page document: images row-major, cycling
// through the source list, then grid lines on top.
func (r *Renderer) compose(ctx context.Context, job Job, layout geo.Layout, conv *cmm.Converter, log observability.Logger) (*doc.Document, *Result, error) {
	cellW, cellH := job.Cell.WidthPt(), job.Cell.HeightPt()
	pageH := job.Page.Height
	total := layout.Cells()

	result := &Result{Layout: layout, Cells: total}
	report := func(done int) {
		if job.Progress != nil {
			job.Progress(done * 100 / total)
		}
	}
	report(0)

	// Target pixel size for downscaling; each source is converted once
	// and reused for every cell it fills.
	maxDim := int(maxFloat(cellW, cellH) / 72 * renderDPI)
	cells := make(map[string]*doc.Image, len(job.Images))
	failed := make(map[string]bool)

	b := builder.New().SetInfo(doc.Info{
		Title:     "Image Grid",
		Producer:  "gridpdf",
		ColorMode: conv.Mode(),
	})
	page := b.NewPage(job.Page.Width, job.Page.Height)

	done := 0
	for row := 0; row < layout.Rows; row++ {
		for col := 0; col < layout.Columns; col++ {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}

			path := job.Images[(row*layout.Columns+col)%len(job.Images)]
			img, ok := cells[path]
			if !ok && !failed[path] {
				var err error
				img, err = r.prepare(path, conv, maxDim)
				if err != nil {
					failed[path] = true
					result.Skipped = append(result.Skipped, path)
					log.Warn("skipping image",
						observability.String("path", path),
						observability.Error("error", err))
				} else {
					cells[path] = img
				}
			}

			if img != nil {
				aspect := float64(img.Width) / float64(img.Height)
				fit := geo.Fit(aspect, cellW, cellH)
				x := float64(col)*cellW + fit.X
				y := pageH - float64(row+1)*cellH + fit.Y
				page.DrawImage(img, x, y, fit.Width, fit.Height)
				result.Rendered++
			}

			done++
			report(done)
		}
	}

	if job.Lines.Visible && job.Lines.Width > 0 {
		drawGrid(page, layout, cellW, cellH, job.Page, job.Lines)
	}

	document, err := page.Finish().Build()
	if err != nil {
		return nil, nil, err
	}
	return document, result, nil
}

func (r *Renderer) prepare(path string, conv *cmm.Converter, maxDim int) (*doc.Image, error) {
	src, err := r.images.Load(path)
	if err != nil {
		return nil, err
	}
	src = preview.Downscale(src, maxDim)

	cmyk, err := conv.Convert(src)
	if err != nil {
		return nil, err
	}

	var cs doc.ColorSpace = doc.DeviceCMYK{}
	if cmyk.Profile != nil {
		cs = doc.ICCBased{N: 4, Profile: cmyk.Profile}
	}
	return &doc.Image{
		Width:            cmyk.Width,
		Height:           cmyk.Height,
		BitsPerComponent: 8,
		ColorSpace:       cs,
		Data:             cmyk.Data,
		Interpolate:      true,
	}, nil
}

// drawGrid draws lines along every cell boundary, spanning the full page
// in both directions.
func drawGrid(page builder.PageBuilder, layout geo.Layout, cellW, cellH float64, size geo.PageSize, style LineStyle) {
	opts := builder.LineOptions{Color: style.Color, Width: style.Width}

	for col := 0; col <= layout.Columns; col++ {
		x := float64(col) * cellW
		page.DrawLine(x, 0, x, size.Height, opts)
	}
	for row := 0; row <= layout.Rows; row++ {
		y := size.Height - float64(row)*cellH
		page.DrawLine(0, y, size.Width, y, opts)
	}
}

// publish moves the finished PDF into place. The copy lands in a hidden
// temp file beside the destination, then a rename makes it visible, so a
// reader never observes a partial file.
func publish(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	defer in.Close()

	dir := filepath.Dir(dst)
	tmp, err := os.CreateTemp(dir, ".grid-*.pdf")
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("publish: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
