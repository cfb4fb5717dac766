package builder

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wudi/gridpdf/doc"
)

func testImage() *doc.Image {
	return &doc.Image{
		Width:            1,
		Height:           1,
		BitsPerComponent: 8,
		ColorSpace:       doc.DeviceCMYK{},
		Data:             []byte{0, 0, 0, 255},
	}
}

func TestBuildEmptyDocumentFails(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Fatal("expected error for document without pages")
	}
}

func TestDrawImageOps(t *testing.T) {
	b := New()
	img := testImage()
	d, err := b.NewPage(595.28, 841.89).DrawImage(img, 10, 20, 100, 50).Finish().Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	page := d.Pages[0]
	if page.XObjects["Im1"] != img {
		t.Fatal("image not registered as Im1")
	}

	want := []doc.Operation{
		{Operator: "q"},
		{Operator: "cm", Operands: []doc.Operand{
			doc.NumberOperand{Value: 100}, doc.NumberOperand{Value: 0},
			doc.NumberOperand{Value: 0}, doc.NumberOperand{Value: 50},
			doc.NumberOperand{Value: 10}, doc.NumberOperand{Value: 20},
		}},
		{Operator: "Do", Operands: []doc.Operand{doc.NameOperand{Value: "Im1"}}},
		{Operator: "Q"},
	}
	if diff := cmp.Diff(want, page.Contents[0].Operations); diff != "" {
		t.Errorf("operations mismatch (-want +got):\n%s", diff)
	}
}

func TestImageNamesStable(t *testing.T) {
	b := New().(*builderImpl)
	img1, img2 := testImage(), testImage()
	p := b.NewPage(100, 100)
	p.DrawImage(img1, 0, 0, 10, 10).DrawImage(img2, 10, 0, 10, 10).DrawImage(img1, 20, 0, 10, 10)

	if b.imageName(img1) != "Im1" || b.imageName(img2) != "Im2" {
		t.Errorf("unexpected names: %q, %q", b.imageName(img1), b.imageName(img2))
	}
	page := b.pages[0]
	if len(page.XObjects) != 2 {
		t.Errorf("expected 2 registered XObjects, got %d", len(page.XObjects))
	}
}

func TestDrawLineOps(t *testing.T) {
	d, err := New().
		NewPage(100, 100).
		DrawLine(0, 0, 100, 0, LineOptions{Color: doc.RGB{R: 1}, Width: 2}).
		Finish().
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	ops := d.Pages[0].Contents[0].Operations
	var operators []string
	for _, op := range ops {
		operators = append(operators, op.Operator)
	}
	want := []string{"q", "RG", "w", "m", "l", "S", "Q"}
	if diff := cmp.Diff(want, operators); diff != "" {
		t.Errorf("operator sequence mismatch (-want +got):\n%s", diff)
	}
}
