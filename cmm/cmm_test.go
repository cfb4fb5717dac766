package cmm

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestParseIntent(t *testing.T) {
	cases := []struct {
		name string
		want RenderingIntent
	}{
		{"perceptual", IntentPerceptual},
		{"relative", IntentRelativeColorimetric},
		{"saturation", IntentSaturation},
		{"absolute", IntentAbsoluteColorimetric},
	}
	for _, tc := range cases {
		got, err := ParseIntent(tc.name)
		if err != nil {
			t.Fatalf("ParseIntent(%q): %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("ParseIntent(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestParseIntentUnknown(t *testing.T) {
	if _, err := ParseIntent("vivid"); !errors.Is(err, ErrUnknownIntent) {
		t.Fatalf("expected ErrUnknownIntent, got %v", err)
	}
}

func TestNaiveConversion(t *testing.T) {
	conv := NewNaiveConverter()
	if conv.Mode() != "naive-cmyk" {
		t.Fatalf("mode = %q", conv.Mode())
	}

	cases := []struct {
		name string
		in   color.NRGBA
		want [4]byte
	}{
		{"white", color.NRGBA{255, 255, 255, 255}, [4]byte{0, 0, 0, 0}},
		{"black", color.NRGBA{0, 0, 0, 255}, [4]byte{255, 255, 255, 255}},
		{"red", color.NRGBA{255, 0, 0, 255}, [4]byte{0, 255, 255, 0}},
		{"green", color.NRGBA{0, 255, 0, 255}, [4]byte{255, 0, 255, 0}},
		{"blue", color.NRGBA{0, 0, 255, 255}, [4]byte{255, 255, 0, 0}},
		{"transparent", color.NRGBA{0, 0, 0, 0}, [4]byte{0, 0, 0, 0}},
	}
	for _, tc := range cases {
		img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		img.SetNRGBA(0, 0, tc.in)
		out, err := conv.Convert(img)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		got := [4]byte{out.Data[0], out.Data[1], out.Data[2], out.Data[3]}
		if got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
		if out.Profile != nil {
			t.Errorf("%s: naive output carries a profile", tc.name)
		}
	}
}

func TestConvertCMYKPassthrough(t *testing.T) {
	src := image.NewCMYK(image.Rect(0, 0, 2, 2))
	for i := range src.Pix {
		src.Pix[i] = byte(i * 13)
	}
	out, err := NewNaiveConverter().Convert(src)
	if err != nil {
		t.Fatal(err)
	}
	if out.Width != 2 || out.Height != 2 {
		t.Fatalf("size = %dx%d", out.Width, out.Height)
	}
	for i := range out.Data {
		if out.Data[i] != src.Pix[i] {
			t.Fatalf("pixel byte %d changed: %d != %d", i, out.Data[i], src.Pix[i])
		}
	}
}

func TestFlattenOntoWhite(t *testing.T) {
	// Half-transparent black over white should come out mid gray.
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 128})
	out, err := NewNaiveConverter().Convert(img)
	if err != nil {
		t.Fatal(err)
	}
	k := out.Data[3]
	if k < 120 || k > 136 {
		t.Fatalf("half-transparent black gave K=%d, want near 128", k)
	}
	// Equal channels after flattening gray.
	if out.Data[0] != out.Data[1] || out.Data[1] != out.Data[2] {
		t.Fatalf("gray flatten uneven: %v", out.Data[:4])
	}
}

// makeProfile assembles a minimal ICC profile: 128-byte header followed
// by a tag table and tag data.
func makeProfile(class, colorSpace, pcs string, tags map[string][]byte) []byte {
	header := make([]byte, 128)
	copy(header[12:16], class)
	copy(header[16:20], colorSpace)
	copy(header[20:24], pcs)
	copy(header[36:40], "acsp")

	sigs := make([]string, 0, len(tags))
	for sig := range tags {
		sigs = append(sigs, sig)
	}

	table := make([]byte, 4+len(tags)*12)
	binary.BigEndian.PutUint32(table[0:4], uint32(len(tags)))
	offset := 128 + len(table)
	var body []byte
	for i, sig := range sigs {
		entry := table[4+i*12:]
		copy(entry[0:4], sig)
		binary.BigEndian.PutUint32(entry[4:8], uint32(offset))
		binary.BigEndian.PutUint32(entry[8:12], uint32(len(tags[sig])))
		offset += len(tags[sig])
		body = append(body, tags[sig]...)
	}

	out := append(header, table...)
	return append(out, body...)
}

func descTag(name string) []byte {
	data := make([]byte, 12+len(name)+1)
	copy(data[0:4], "desc")
	binary.BigEndian.PutUint32(data[8:12], uint32(len(name)+1))
	copy(data[12:], name)
	return data
}

func TestICCProfileHeader(t *testing.T) {
	data := makeProfile("prtr", "CMYK", "Lab ", map[string][]byte{
		"desc": descTag("Test CMYK"),
	})
	p, err := NewICCProfile(data)
	if err != nil {
		t.Fatal(err)
	}
	if p.Class() != "prtr" || p.ColorSpace() != "CMYK" || p.PCS() != "Lab " {
		t.Fatalf("header fields: class=%q cs=%q pcs=%q", p.Class(), p.ColorSpace(), p.PCS())
	}
	if p.Name() != "Test CMYK" {
		t.Fatalf("Name() = %q", p.Name())
	}
}

func TestLoadProfile(t *testing.T) {
	data := makeProfile("prtr", "CMYK", "Lab ", map[string][]byte{
		"desc": descTag("Disk CMYK"),
	})
	path := filepath.Join(t.TempDir(), "out.icc")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadProfile(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "Disk CMYK" {
		t.Fatalf("Name() = %q", p.Name())
	}

	if _, err := LoadProfile(filepath.Join(t.TempDir(), "missing.icc")); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestICCProfileRejectsGarbage(t *testing.T) {
	if _, err := NewICCProfile([]byte("not a profile")); err == nil {
		t.Fatal("short data accepted")
	}
	data := makeProfile("prtr", "CMYK", "Lab ", nil)
	copy(data[36:40], "xxxx")
	if _, err := NewICCProfile(data); err == nil {
		t.Fatal("bad magic accepted")
	}
}

// lut16Tag builds an mft2 tag: identity matrix, two-entry linear curves,
// and the caller's CLUT samples.
func lut16Tag(inCh, outCh, gridPoints int, clut []uint16) []byte {
	var data []byte
	head := make([]byte, 52)
	copy(head[0:4], "mft2")
	head[8] = byte(inCh)
	head[9] = byte(outCh)
	head[10] = byte(gridPoints)
	for i := 0; i < 3; i++ {
		binary.BigEndian.PutUint32(head[12+(i*3+i)*4:], 0x00010000) // 1.0 on the diagonal
	}
	binary.BigEndian.PutUint16(head[48:50], 2)
	binary.BigEndian.PutUint16(head[50:52], 2)
	data = append(data, head...)

	linear := []uint16{0, 0xffff}
	for c := 0; c < inCh; c++ {
		for _, v := range linear {
			data = binary.BigEndian.AppendUint16(data, v)
		}
	}
	for _, v := range clut {
		data = binary.BigEndian.AppendUint16(data, v)
	}
	for c := 0; c < outCh; c++ {
		for _, v := range linear {
			data = binary.BigEndian.AppendUint16(data, v)
		}
	}
	return data
}

func TestReadLUTTag(t *testing.T) {
	// 3 in, 4 out, 2 grid points per axis: 8 cells of 4 samples.
	clut := make([]uint16, 8*4)
	data := makeProfile("prtr", "CMYK", "XYZ ", map[string][]byte{
		"B2A0": lut16Tag(3, 4, 2, clut),
	})
	p, err := NewICCProfile(data)
	if err != nil {
		t.Fatal(err)
	}
	lut, err := p.ReadLUTTag("B2A0")
	if err != nil {
		t.Fatal(err)
	}
	if lut.InputChannels != 3 || lut.OutputChannels != 4 || lut.GridPoints != 2 {
		t.Fatalf("dims: in=%d out=%d grid=%d", lut.InputChannels, lut.OutputChannels, lut.GridPoints)
	}
}

func TestLUTTrilinear(t *testing.T) {
	// Identity-like 3->3 cube: output channel equals its input coordinate
	// at every corner, so interpolation must reproduce the input.
	lut := &LUT{
		InputChannels:  3,
		OutputChannels: 3,
		GridPoints:     2,
		Matrix:         [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		InputTables:    [][]float64{{0, 1}, {0, 1}, {0, 1}},
		OutputTables:   [][]float64{{0, 1}, {0, 1}, {0, 1}},
	}
	lut.CLUT = make([]float64, 8*3)
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			for z := 0; z < 2; z++ {
				idx := (x*4 + y*2 + z) * 3
				lut.CLUT[idx] = float64(x)
				lut.CLUT[idx+1] = float64(y)
				lut.CLUT[idx+2] = float64(z)
			}
		}
	}
	for _, in := range [][]float64{{0, 0, 0}, {1, 1, 1}, {0.25, 0.5, 0.75}} {
		out, err := lut.Convert(in)
		if err != nil {
			t.Fatal(err)
		}
		for c := range in {
			if math.Abs(out[c]-in[c]) > 1e-9 {
				t.Fatalf("Convert(%v)[%d] = %v", in, c, out[c])
			}
		}
	}
}

func TestNewICCConverter(t *testing.T) {
	clut := make([]uint16, 8*4)
	for i := range clut {
		clut[i] = uint16((i * 7919) % 65536)
	}
	data := makeProfile("prtr", "CMYK", "XYZ ", map[string][]byte{
		"desc": descTag("Cube CMYK"),
		"B2A0": lut16Tag(3, 4, 2, clut),
	})
	conv, err := NewICCConverter(data, IntentPerceptual)
	if err != nil {
		t.Fatal(err)
	}
	if conv.Mode() != "icc:Cube CMYK/perceptual" {
		t.Fatalf("mode = %q", conv.Mode())
	}

	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{200, 50, 30, 255})
	img.SetNRGBA(1, 0, color.NRGBA{200, 50, 30, 255})
	out, err := conv.Convert(img)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Data) != 8 {
		t.Fatalf("data length = %d", len(out.Data))
	}
	// Equal inputs convert identically.
	for i := 0; i < 4; i++ {
		if out.Data[i] != out.Data[4+i] {
			t.Fatalf("identical pixels diverge: %v vs %v", out.Data[:4], out.Data[4:8])
		}
	}
	if out.Profile == nil {
		t.Fatal("ICC output missing profile bytes")
	}
}

func TestNewICCConverterRejectsRGBProfile(t *testing.T) {
	data := makeProfile("mntr", "RGB ", "XYZ ", map[string][]byte{
		"desc": descTag("Some RGB"),
	})
	if _, err := NewICCConverter(data, IntentPerceptual); err == nil {
		t.Fatal("RGB output profile accepted")
	}
}

func TestTransformFallsBackWithoutTables(t *testing.T) {
	// A CMYK profile with no B2A or matrix/TRC tags still yields a
	// transform via the direct conversion path.
	data := makeProfile("prtr", "CMYK", "Lab ", map[string][]byte{
		"desc": descTag("Tagless"),
	})
	prof, err := NewICCProfile(data)
	if err != nil {
		t.Fatal(err)
	}
	tr, err := NewFactory().NewTransform(SRGB(), prof, IntentRelativeColorimetric)
	if err != nil {
		t.Fatal(err)
	}
	out, err := tr.Convert([]float64{1, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 1, 1, 0}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-9 {
			t.Fatalf("fallback red = %v, want %v", out, want)
		}
	}
}

func TestSRGBWhitePoint(t *testing.T) {
	out, err := srgbToXYZ{}.Convert([]float64{1, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	want := [3]float64{d50X, d50Y, d50Z}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 0.01 {
			t.Fatalf("sRGB white -> %v, want about %v", out, want)
		}
	}
}
