// Package builder provides a fluent API for assembling grid documents.
package builder

import (
	"fmt"

	"github.com/wudi/gridpdf/doc"
)

// DocumentBuilder accumulates pages and metadata for one document.
type DocumentBuilder interface {
	NewPage(width, height float64) PageBuilder
	SetInfo(info doc.Info) DocumentBuilder
	Build() (*doc.Document, error)
}

// PageBuilder draws content onto one page. Coordinates are page points with
// the origin at the lower-left corner.
type PageBuilder interface {
	DrawImage(img *doc.Image, x, y, width, height float64) PageBuilder
	DrawLine(x1, y1, x2, y2 float64, opts LineOptions) PageBuilder
	Finish() DocumentBuilder
}

// LineOptions configures stroked lines.
type LineOptions struct {
	Color doc.RGB
	Width float64
}

type builderImpl struct {
	pages        []*doc.Page
	info         doc.Info
	xobjectCount int
	xobjectNames map[*doc.Image]string
}

type pageBuilderImpl struct {
	parent *builderImpl
	page   *doc.Page
}

// New constructs a DocumentBuilder.
func New() DocumentBuilder { return &builderImpl{} }

func (b *builderImpl) NewPage(w, h float64) PageBuilder {
	p := &doc.Page{MediaBox: doc.Rectangle{URX: w, URY: h}}
	b.pages = append(b.pages, p)
	return &pageBuilderImpl{parent: b, page: p}
}

func (b *builderImpl) SetInfo(info doc.Info) DocumentBuilder {
	b.info = info
	return b
}

func (b *builderImpl) Build() (*doc.Document, error) {
	if len(b.pages) == 0 {
		return nil, fmt.Errorf("document has no pages")
	}
	return &doc.Document{Pages: b.pages, Info: b.info}, nil
}

// imageName assigns each distinct image a stable XObject resource name.
func (b *builderImpl) imageName(img *doc.Image) string {
	if b.xobjectNames == nil {
		b.xobjectNames = make(map[*doc.Image]string)
	}
	if name, ok := b.xobjectNames[img]; ok {
		return name
	}
	b.xobjectCount++
	name := fmt.Sprintf("Im%d", b.xobjectCount)
	b.xobjectNames[img] = name
	return name
}

func (p *pageBuilderImpl) DrawImage(img *doc.Image, x, y, width, height float64) PageBuilder {
	if img == nil {
		return p
	}
	if p.page.XObjects == nil {
		p.page.XObjects = make(map[string]*doc.Image)
	}
	name := p.parent.imageName(img)
	p.page.XObjects[name] = img

	ops := p.ensureContentOps()
	*ops = append(*ops, doc.Operation{Operator: "q"})
	*ops = append(*ops, doc.Operation{
		Operator: "cm",
		Operands: []doc.Operand{
			doc.NumberOperand{Value: width},
			doc.NumberOperand{Value: 0},
			doc.NumberOperand{Value: 0},
			doc.NumberOperand{Value: height},
			doc.NumberOperand{Value: x},
			doc.NumberOperand{Value: y},
		},
	})
	*ops = append(*ops, doc.Operation{
		Operator: "Do",
		Operands: []doc.Operand{doc.NameOperand{Value: name}},
	})
	*ops = append(*ops, doc.Operation{Operator: "Q"})
	return p
}

func (p *pageBuilderImpl) DrawLine(x1, y1, x2, y2 float64, opts LineOptions) PageBuilder {
	ops := p.ensureContentOps()
	*ops = append(*ops, doc.Operation{Operator: "q"})
	*ops = append(*ops, doc.Operation{
		Operator: "RG",
		Operands: []doc.Operand{
			doc.NumberOperand{Value: opts.Color.R},
			doc.NumberOperand{Value: opts.Color.G},
			doc.NumberOperand{Value: opts.Color.B},
		},
	})
	if opts.Width > 0 {
		*ops = append(*ops, doc.Operation{
			Operator: "w",
			Operands: []doc.Operand{doc.NumberOperand{Value: opts.Width}},
		})
	}
	*ops = append(*ops, doc.Operation{
		Operator: "m",
		Operands: []doc.Operand{doc.NumberOperand{Value: x1}, doc.NumberOperand{Value: y1}},
	})
	*ops = append(*ops, doc.Operation{
		Operator: "l",
		Operands: []doc.Operand{doc.NumberOperand{Value: x2}, doc.NumberOperand{Value: y2}},
	})
	*ops = append(*ops, doc.Operation{Operator: "S"})
	*ops = append(*ops, doc.Operation{Operator: "Q"})
	return p
}

func (p *pageBuilderImpl) Finish() DocumentBuilder { return p.parent }

func (p *pageBuilderImpl) ensureContentOps() *[]doc.Operation {
	if len(p.page.Contents) == 0 {
		p.page.Contents = append(p.page.Contents, doc.ContentStream{})
	}
	return &p.page.Contents[0].Operations
}
