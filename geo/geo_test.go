package geo

import (
	"math"
	"testing"
)

func TestComputeLayoutA4(t *testing.T) {
	// 100mm cells on A4: floor(595.28/283.465)=2, floor(841.89/283.465)=2.
	l := ComputeLayout(A4, CellSpec{WidthMM: 100, HeightMM: 100})
	if l.Columns != 2 || l.Rows != 2 {
		t.Fatalf("expected 2x2 layout, got %dx%d", l.Columns, l.Rows)
	}
	if l.Cells() != 4 {
		t.Errorf("expected 4 cells, got %d", l.Cells())
	}
}

func TestComputeLayoutA3(t *testing.T) {
	l := ComputeLayout(A3, CellSpec{WidthMM: 100, HeightMM: 100})
	if l.Columns != 2 || l.Rows != 4 {
		t.Fatalf("expected 2x4 layout, got %dx%d", l.Columns, l.Rows)
	}
}

func TestComputeLayoutFloor(t *testing.T) {
	for _, tc := range []struct {
		w, h       float64
		cols, rows int
	}{
		{50, 50, 4, 5},
		{105, 100, 2, 2},
		{210, 297, 1, 1},
	} {
		l := ComputeLayout(A4, CellSpec{WidthMM: tc.w, HeightMM: tc.h})
		if l.Columns != tc.cols || l.Rows != tc.rows {
			t.Errorf("cell %gx%gmm: expected %dx%d, got %dx%d",
				tc.w, tc.h, tc.cols, tc.rows, l.Columns, l.Rows)
		}
	}
}

func TestComputeLayoutOversizedCell(t *testing.T) {
	// A cell larger than the page still yields one cell, never zero.
	l := ComputeLayout(A4, CellSpec{WidthMM: 500, HeightMM: 1000})
	if l.Columns != 1 || l.Rows != 1 {
		t.Fatalf("expected 1x1 layout for oversized cell, got %dx%d", l.Columns, l.Rows)
	}
}

func TestFitWideImage(t *testing.T) {
	// 100mm square cell, aspect 2.0 source: width pinned, vertically centered.
	cw, ch := MMToPt(100), MMToPt(100)
	r := Fit(2.0, cw, ch)
	if r.Width != cw {
		t.Errorf("expected width %g, got %g", cw, r.Width)
	}
	if math.Abs(r.Height-cw/2) > 1e-9 {
		t.Errorf("expected height %g, got %g", cw/2, r.Height)
	}
	if r.X != 0 {
		t.Errorf("expected zero horizontal offset, got %g", r.X)
	}
	if math.Abs(r.Y-(ch-r.Height)/2) > 1e-9 {
		t.Errorf("expected vertical centering, got y=%g", r.Y)
	}
}

func TestFitTallImage(t *testing.T) {
	r := Fit(0.5, 200, 100)
	if r.Height != 100 {
		t.Errorf("expected height pinned to 100, got %g", r.Height)
	}
	if math.Abs(r.Width-50) > 1e-9 {
		t.Errorf("expected width 50, got %g", r.Width)
	}
	if math.Abs(r.X-75) > 1e-9 {
		t.Errorf("expected horizontal centering at 75, got %g", r.X)
	}
	if r.Y != 0 {
		t.Errorf("expected zero vertical offset, got %g", r.Y)
	}
}

func TestFitEqualAspect(t *testing.T) {
	// An exact aspect match takes the height branch: tight fit, zero offsets.
	r := Fit(1.5, 300, 200)
	if math.Abs(r.Width-300) > 1e-9 || math.Abs(r.Height-200) > 1e-9 {
		t.Fatalf("expected tight 300x200 fit, got %gx%g", r.Width, r.Height)
	}
	if r.X != 0 || r.Y != 0 {
		t.Errorf("expected zero offsets, got (%g, %g)", r.X, r.Y)
	}
}

func TestFitAlwaysInsideCell(t *testing.T) {
	cells := []struct{ w, h float64 }{{100, 100}, {283.465, 141.7}, {10, 400}}
	aspects := []float64{0.1, 0.5, 1, 1.41, 2, 10}
	const eps = 1e-9
	for _, c := range cells {
		for _, a := range aspects {
			r := Fit(a, c.w, c.h)
			if r.X < -eps || r.Y < -eps || r.X+r.Width > c.w+eps || r.Y+r.Height > c.h+eps {
				t.Errorf("aspect %g in %gx%g: rect %+v escapes cell", a, c.w, c.h, r)
			}
			if math.Abs(r.Width/r.Height-a) > 1e-6 {
				t.Errorf("aspect %g not preserved: got %g", a, r.Width/r.Height)
			}
		}
	}
}

func TestMMToPt(t *testing.T) {
	if got := MMToPt(100); math.Abs(got-283.465) > 1e-9 {
		t.Errorf("expected 283.465, got %g", got)
	}
}

func TestPageSizeByName(t *testing.T) {
	p, ok := PageSizeByName("A4")
	if !ok || p != A4 {
		t.Fatalf("expected A4 preset, got %+v ok=%v", p, ok)
	}
	if _, ok := PageSizeByName("letter"); ok {
		t.Error("expected unknown page size to fail")
	}
	if A3.Name() != "A3" {
		t.Errorf("expected A3 name, got %q", A3.Name())
	}
}
