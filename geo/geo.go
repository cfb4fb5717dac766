package geo

import "math"

// MMToPoint converts millimeters to PostScript points.
const MMToPoint = 2.83465

// MMToPt converts a length in millimeters to points.
func MMToPt(mm float64) float64 { return mm * MMToPoint }

// PageSize is an output page size in points.
type PageSize struct {
	Width  float64
	Height float64
}

// ISO page presets.
var (
	A4 = PageSize{Width: 595.28, Height: 841.89}
	A3 = PageSize{Width: 841.89, Height: 1190.55}
)

// PageSizeByName resolves a page size identifier ("A4", "A3").
func PageSizeByName(name string) (PageSize, bool) {
	switch name {
	case "A4":
		return A4, true
	case "A3":
		return A3, true
	}
	return PageSize{}, false
}

// Name returns the preset identifier for p, or "" if p is not a preset.
func (p PageSize) Name() string {
	switch p {
	case A4:
		return "A4"
	case A3:
		return "A3"
	}
	return ""
}

// CellSpec is the size of one grid cell in millimeters.
type CellSpec struct {
	WidthMM  float64
	HeightMM float64
}

func (c CellSpec) WidthPt() float64  { return MMToPt(c.WidthMM) }
func (c CellSpec) HeightPt() float64 { return MMToPt(c.HeightMM) }

// Layout is the derived grid dimensions for a page/cell combination.
type Layout struct {
	Columns int
	Rows    int
}

// Cells returns the total cell count.
func (l Layout) Cells() int { return l.Columns * l.Rows }

// ComputeLayout derives the column and row counts for the given page and
// cell sizes. Counts are floored to at least 1: a cell larger than the page
// produces a single cell that overflows the page boundary, which callers
// must tolerate rather than reject.
func ComputeLayout(page PageSize, cell CellSpec) Layout {
	cols := int(math.Floor(page.Width / cell.WidthPt()))
	rows := int(math.Floor(page.Height / cell.HeightPt()))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return Layout{Columns: cols, Rows: rows}
}

// PlacementRect is a placement rectangle local to a cell, in points.
type PlacementRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Fit computes the aspect-preserving placement of an image inside a cell.
// An image relatively wider than the cell pins the cell width; anything
// else, including an exact aspect match, pins the cell height. The result
// is centered on the axis with slack and always lies within the cell.
func Fit(sourceAspect, cellWidthPt, cellHeightPt float64) PlacementRect {
	cellAspect := cellWidthPt / cellHeightPt

	var w, h float64
	if sourceAspect > cellAspect {
		w = cellWidthPt
		h = cellWidthPt / sourceAspect
	} else {
		h = cellHeightPt
		w = cellHeightPt * sourceAspect
	}
	return PlacementRect{
		X:      (cellWidthPt - w) / 2,
		Y:      (cellHeightPt - h) / 2,
		Width:  w,
		Height: h,
	}
}
