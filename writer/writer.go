// Package writer serializes a doc.Document to PDF 1.7. Output is
// deterministic for a given document: object numbers and dictionary keys
// are emitted in a fixed order.
package writer

import (
	"context"
	"io"

	"github.com/wudi/gridpdf/doc"
)

// Config controls serialization.
type Config struct {
	// NoCompression disables flate encoding of content and image streams.
	// Mainly useful in tests that inspect the raw content stream.
	NoCompression bool
}

// Writer serializes documents.
type Writer interface {
	Write(ctx context.Context, d *doc.Document, w io.Writer, cfg Config) error
}

// NewWriter returns the default writer.
func NewWriter() Writer { return &impl{} }
