package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wudi/gridpdf/cmm"
	"github.com/wudi/gridpdf/doc"
	"github.com/wudi/gridpdf/geo"
	"github.com/wudi/gridpdf/observability"
	"github.com/wudi/gridpdf/render"
	"github.com/wudi/gridpdf/settings"
)

var (
	renderOutput     string
	renderPage       string
	renderCellWidth  float64
	renderCellHeight float64
	renderNoGrid     bool
	renderGridColor  string
	renderGridWidth  int
	renderProfile    string
	renderIntent     string
)

var renderCmd = &cobra.Command{
	Use:   "render <image>...",
	Short: "Render images onto the grid and write the PDF",
	Long: `Render tiles the given images onto the page grid, row by row, and
writes a CMYK PDF. Images are repeated in order until every cell is
filled. Flags override the stored settings for a single run.

Examples:
  gridpdf render photo.png -o grid.pdf
  gridpdf render a.png b.jpg --page A3 --cell-width 50 --cell-height 50
  gridpdf render photo.tif --profile coated.icc --intent relative`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "grid.pdf", "output PDF path")
	renderCmd.Flags().StringVar(&renderPage, "page", "", "page size (A4 or A3)")
	renderCmd.Flags().Float64Var(&renderCellWidth, "cell-width", 0, "cell width in mm")
	renderCmd.Flags().Float64Var(&renderCellHeight, "cell-height", 0, "cell height in mm")
	renderCmd.Flags().BoolVar(&renderNoGrid, "no-grid", false, "suppress grid lines")
	renderCmd.Flags().StringVar(&renderGridColor, "grid-color", "", "grid line color (#rrggbb)")
	renderCmd.Flags().IntVar(&renderGridWidth, "grid-width", -1, "grid line width in points")
	renderCmd.Flags().StringVar(&renderProfile, "profile", "", "ICC output profile file")
	renderCmd.Flags().StringVar(&renderIntent, "intent", "perceptual", "rendering intent (perceptual, relative, saturation, absolute)")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd.ErrOrStderr())

	path, err := settingsPath()
	if err != nil {
		return err
	}
	cfg, err := settings.NewStore(path, log).Load()
	if err != nil {
		return err
	}
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	intent, err := cmm.ParseIntent(renderIntent)
	if err != nil {
		return err
	}
	page, _ := geo.PageSizeByName(cfg.PageSize)
	col := cfg.Color()

	job := render.Job{
		Images:      args,
		Page:        page,
		Cell:        geo.CellSpec{WidthMM: cfg.ColWidthMM, HeightMM: cfg.RowHeightMM},
		Lines:       render.LineStyle{Visible: cfg.GridVisible, Color: doc.RGB{R: col.R, G: col.G, B: col.B}, Width: float64(cfg.GridWidth)},
		ProfilePath: renderProfile,
		Intent:      intent,
		Output:      renderOutput,
	}
	if rootVerbose {
		last := -1
		job.Progress = func(p int) {
			if p != last {
				last = p
				fmt.Fprintf(cmd.ErrOrStderr(), "progress: %d%%\n", p)
			}
		}
	}

	res, err := render.New(nil, log).Render(cmd.Context(), job)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %dx%d grid, %d of %d cells, color mode %s\n",
		res.Output, res.Layout.Columns, res.Layout.Rows, res.Rendered, res.Cells, res.ColorMode)
	for _, skipped := range res.Skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %s\n", skipped)
	}
	if len(res.Skipped) > 0 {
		log.Warn("some images were skipped", observability.Int("count", len(res.Skipped)))
	}
	return nil
}

// applyFlags overlays the flags the user actually set onto the stored
// settings.
func applyFlags(cfg *settings.GridSettings) {
	if renderPage != "" {
		cfg.PageSize = renderPage
	}
	if renderCellWidth > 0 {
		cfg.ColWidthMM = renderCellWidth
	}
	if renderCellHeight > 0 {
		cfg.RowHeightMM = renderCellHeight
	}
	if renderNoGrid {
		cfg.GridVisible = false
	}
	if renderGridColor != "" {
		cfg.GridColor = renderGridColor
	}
	if renderGridWidth >= 0 {
		cfg.GridWidth = renderGridWidth
	}
}
