// Package doc models the generated document: pages, their content
// operations, and embedded raster images. It is the handoff format between
// the builder and the writer.
package doc

// Rectangle is an axis-aligned rectangle in page coordinates (points).
type Rectangle struct {
	LLX, LLY, URX, URY float64
}

// ColorSpace describes the color space of an embedded image.
type ColorSpace interface {
	Components() int
}

// DeviceCMYK is the uncalibrated four-channel ink color space.
type DeviceCMYK struct{}

func (DeviceCMYK) Components() int { return 4 }

// ICCBased wraps an ICC profile stream; Alternate is DeviceCMYK.
type ICCBased struct {
	N       int // channel count, 4 for CMYK output
	Profile []byte
}

func (c ICCBased) Components() int { return c.N }

// Image is a raster to embed as an image XObject. Data holds packed 8-bit
// samples in row-major order, Components() channels per pixel.
type Image struct {
	Width            int
	Height           int
	BitsPerComponent int
	ColorSpace       ColorSpace
	Data             []byte
	Interpolate      bool
}

// RGB is a stroke color with channels in [0, 1].
type RGB struct {
	R, G, B float64
}

// Operand is a content stream operand.
type Operand interface{ isOperand() }

// NumberOperand is a numeric operand.
type NumberOperand struct{ Value float64 }

func (NumberOperand) isOperand() {}

// NameOperand is a name operand (e.g. an XObject resource name).
type NameOperand struct{ Value string }

func (NameOperand) isOperand() {}

// Operation is one content stream operator with its operands.
type Operation struct {
	Operator string
	Operands []Operand
}

// ContentStream is an ordered list of operations.
type ContentStream struct {
	Operations []Operation
}

// Page is a single output page.
type Page struct {
	MediaBox Rectangle
	Contents []ContentStream
	XObjects map[string]*Image
}

// Info carries document metadata. ColorMode records how image colors were
// produced ("naive-cmyk" or the ICC profile and intent), so exports in the
// two modes are distinguishable after the fact.
type Info struct {
	Title     string
	Producer  string
	Creator   string
	ColorMode string
}

// Document is the root of the generated document.
type Document struct {
	Pages []*Page
	Info  Info
}
