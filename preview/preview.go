// Package preview maintains a bounded cache of downscaled source images
// for display. Previews are never upscaled; images already smaller than
// the preview size are cached as decoded.
package preview

import (
	"container/list"
	"image"
	"sync"

	xdraw "golang.org/x/image/draw"

	"github.com/wudi/gridpdf/loader"
)

// Cache is a fixed-capacity LRU of preview images keyed by file path.
// Safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	capacity int
	maxDim   int
	reg      *loader.Registry
	order    *list.List
	entries  map[string]*list.Element
}

type cacheEntry struct {
	path string
	img  image.Image
}

// NewCache builds a cache holding at most capacity previews, each scaled
// so its longer side does not exceed maxDim pixels.
func NewCache(reg *loader.Registry, capacity, maxDim int) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		capacity: capacity,
		maxDim:   maxDim,
		reg:      reg,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Get returns the preview for path, loading and downscaling on a miss.
func (c *Cache) Get(path string) (image.Image, error) {
	c.mu.Lock()
	if el, ok := c.entries[path]; ok {
		c.order.MoveToFront(el)
		img := el.Value.(*cacheEntry).img
		c.mu.Unlock()
		return img, nil
	}
	c.mu.Unlock()

	src, err := c.reg.Load(path)
	if err != nil {
		return nil, err
	}
	img := Downscale(src, c.maxDim)

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[path]; ok {
		// Lost a race with another loader for the same path.
		c.order.MoveToFront(el)
		return el.Value.(*cacheEntry).img, nil
	}
	c.entries[path] = c.order.PushFront(&cacheEntry{path: path, img: img})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).path)
	}
	return img, nil
}

// Invalidate drops the cached preview for path, if any.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[path]; ok {
		c.order.Remove(el)
		delete(c.entries, path)
	}
}

// Len reports the number of cached previews.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Downscale resizes src so its longer side is at most maxDim. Images that
// already fit are returned unchanged.
func Downscale(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return src
	}

	outW, outH := maxDim, maxDim
	if w > h {
		outH = h * maxDim / w
	} else {
		outW = w * maxDim / h
	}
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}

	dst := image.NewNRGBA(image.Rect(0, 0, outW, outH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}
