package cmm

import (
	"fmt"
	"image"
)

// CMYKImage is a converted image ready for PDF embedding: four bytes per
// pixel, row-major. Profile holds the raw ICC bytes of the output space,
// or nil for the naive conversion.
type CMYKImage struct {
	Width   int
	Height  int
	Data    []byte
	Profile []byte
}

// Converter turns decoded images into CMYK pixel data. A converter built
// without a profile applies the naive inversion; one built from an ICC
// profile routes each color through the profile transform.
type Converter struct {
	transform Transform
	mode      string
	profile   []byte
	cache     map[uint32][4]byte
}

// NewNaiveConverter returns a converter using the direct channel
// inversion: C=255-R, M=255-G, Y=255-B, K=min(C,M,Y).
func NewNaiveConverter() *Converter {
	return &Converter{mode: "naive-cmyk"}
}

// NewICCConverter builds a profile-managed converter from raw ICC bytes.
// The profile must describe a CMYK output space.
func NewICCConverter(profileData []byte, intent RenderingIntent) (*Converter, error) {
	factory := NewFactory()
	prof, err := factory.NewProfile(profileData)
	if err != nil {
		return nil, fmt.Errorf("load output profile: %w", err)
	}
	if prof.ColorSpace() != "CMYK" {
		return nil, fmt.Errorf("output profile %q is %s, not CMYK", prof.Name(), prof.ColorSpace())
	}
	tr, err := factory.NewTransform(SRGB(), prof, intent)
	if err != nil {
		return nil, fmt.Errorf("build transform: %w", err)
	}
	return &Converter{
		transform: tr,
		mode:      fmt.Sprintf("icc:%s/%s", prof.Name(), intent),
		profile:   profileData,
		cache:     make(map[uint32][4]byte),
	}, nil
}

// Mode describes the active conversion for logs and document metadata.
func (c *Converter) Mode() string { return c.mode }

// Profile returns the raw output profile bytes, nil in naive mode.
func (c *Converter) Profile() []byte { return c.profile }

// Convert produces CMYK pixel data for img. CMYK sources pass through
// unchanged; everything else is flattened onto white and converted.
func (c *Converter) Convert(img image.Image) (*CMYKImage, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty image %dx%d", w, h)
	}

	if src, ok := img.(*image.CMYK); ok {
		out := &CMYKImage{Width: w, Height: h, Data: make([]byte, w*h*4), Profile: c.profile}
		for y := 0; y < h; y++ {
			rowStart := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(out.Data[y*w*4:(y+1)*w*4], src.Pix[rowStart:rowStart+w*4])
		}
		return out, nil
	}

	out := &CMYKImage{Width: w, Height: h, Data: make([]byte, w*h*4), Profile: c.profile}
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r16, g16, b16, a16 := img.At(x, y).RGBA()
			r, g, b := flattenOntoWhite(r16, g16, b16, a16)

			var px [4]byte
			if c.transform == nil {
				cc, m, yy := 255-r, 255-g, 255-b
				k := cc
				if m < k {
					k = m
				}
				if yy < k {
					k = yy
				}
				px = [4]byte{cc, m, yy, k}
			} else {
				var err error
				px, err = c.convertICC(r, g, b)
				if err != nil {
					return nil, err
				}
			}
			out.Data[i] = px[0]
			out.Data[i+1] = px[1]
			out.Data[i+2] = px[2]
			out.Data[i+3] = px[3]
			i += 4
		}
	}
	return out, nil
}

func (c *Converter) convertICC(r, g, b byte) ([4]byte, error) {
	key := uint32(r)<<16 | uint32(g)<<8 | uint32(b)
	if px, ok := c.cache[key]; ok {
		return px, nil
	}
	cmyk, err := c.transform.Convert([]float64{
		float64(r) / 255, float64(g) / 255, float64(b) / 255,
	})
	if err != nil {
		return [4]byte{}, fmt.Errorf("convert pixel: %w", err)
	}
	if len(cmyk) != 4 {
		return [4]byte{}, fmt.Errorf("transform returned %d channels, expected 4", len(cmyk))
	}
	var px [4]byte
	for i, v := range cmyk {
		px[i] = byte(clamp01(v)*255 + 0.5)
	}
	c.cache[key] = px
	return px, nil
}

// flattenOntoWhite composites a premultiplied 16-bit color onto a white
// background and returns 8-bit channels.
func flattenOntoWhite(r, g, b, a uint32) (byte, byte, byte) {
	if a == 0xffff {
		return byte(r >> 8), byte(g >> 8), byte(b >> 8)
	}
	bg := 0xffff - a
	f := func(c uint32) byte {
		v := c + bg
		if v > 0xffff {
			v = 0xffff
		}
		return byte(v >> 8)
	}
	return f(r), f(g), f(b)
}
