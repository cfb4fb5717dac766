// Package loader decodes source images through a capability registry, so
// format support can be extended without touching the render pipeline.
package loader

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for files whose extension no
// registered capability claims.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Capability decodes one family of image formats.
type Capability interface {
	// Extensions lists the file extensions handled, lowercase with the
	// leading dot ([".png"]).
	Extensions() []string
	// Load decodes the file at path.
	Load(path string) (image.Image, error)
}

// Registry routes image files to capabilities by extension.
type Registry struct {
	byExt map[string]Capability
}

func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Capability)}
}

// Register adds a capability. Later registrations win on extension
// conflicts.
func (r *Registry) Register(c Capability) {
	for _, ext := range c.Extensions() {
		r.byExt[strings.ToLower(ext)] = c
	}
}

// Load decodes the image at path using the capability registered for its
// extension.
func (r *Registry) Load(path string) (image.Image, error) {
	ext := strings.ToLower(filepath.Ext(path))
	cap, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%s: %w (%q)", path, ErrUnsupportedFormat, ext)
	}
	img, err := cap.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return img, nil
}

// Extensions returns the sorted list of extensions with a registered
// capability.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Default returns a registry with the built-in raster formats: PNG, JPEG,
// GIF, BMP, TIFF and WebP.
func Default() *Registry {
	r := NewRegistry()
	r.Register(rasterCapability{})
	return r
}

// rasterCapability decodes every format registered with image.Decode via
// the standard library and golang.org/x/image decoders.
type rasterCapability struct{}

func (rasterCapability) Extensions() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}
}

func (rasterCapability) Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}
