package cmm

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

type factoryImpl struct{}

// NewFactory returns the default color management factory.
func NewFactory() Factory { return &factoryImpl{} }

func (f *factoryImpl) NewProfile(data []byte) (Profile, error) {
	return NewICCProfile(data)
}

func (f *factoryImpl) NewTransform(src, dst Profile, intent RenderingIntent) (Transform, error) {
	if src == nil || dst == nil {
		return nil, errors.New("source and destination profiles required")
	}
	if src.Data() != nil && bytes.Equal(src.Data(), dst.Data()) {
		return &identityTransform{}, nil
	}

	toPCS, srcPCS, errSrc := deviceToPCS(src)
	fromPCS, dstPCS, errDst := pcsToDevice(dst, intent)
	if errSrc == nil && errDst == nil {
		return &pipelineTransform{
			toPCS:   toPCS,
			fromPCS: fromPCS,
			srcPCS:  srcPCS,
			dstPCS:  dstPCS,
		}, nil
	}

	// No usable profile pipeline; fall back to the direct channel
	// conversion between the declared color spaces.
	return &basicTransform{src: src, dst: dst}, nil
}

// deviceToPCS builds the device-to-connection-space half of a transform.
func deviceToPCS(p Profile) (Transform, string, error) {
	switch prof := p.(type) {
	case *srgbProfile:
		return srgbToXYZ{}, "XYZ ", nil
	case *ICCProfile:
		if lut, err := prof.ReadLUTTag("A2B0"); err == nil {
			return lut, prof.PCS(), nil
		}
		trc, err := newMatrixTRC(prof)
		if err != nil {
			return nil, "", err
		}
		return trc, "XYZ ", nil
	}
	return nil, "", fmt.Errorf("unsupported profile type %T", p)
}

// pcsToDevice builds the connection-space-to-device half. The rendering
// intent selects the B2A tag; absolute colorimetric shares the relative
// table, and profiles lacking the intent-specific table fall back to B2A0.
func pcsToDevice(p Profile, intent RenderingIntent) (Transform, string, error) {
	prof, ok := p.(*ICCProfile)
	if !ok {
		return nil, "", fmt.Errorf("unsupported destination profile type %T", p)
	}

	tagIndex := 0
	switch intent {
	case IntentRelativeColorimetric, IntentAbsoluteColorimetric:
		tagIndex = 1
	case IntentSaturation:
		tagIndex = 2
	}
	if lut, err := prof.ReadLUTTag(fmt.Sprintf("B2A%d", tagIndex)); err == nil {
		return lut, prof.PCS(), nil
	}
	if lut, err := prof.ReadLUTTag("B2A0"); err == nil {
		return lut, prof.PCS(), nil
	}

	trc, err := newMatrixTRC(prof)
	if err != nil {
		return nil, "", err
	}
	inv, err := trc.Inverse()
	if err != nil {
		return nil, "", err
	}
	return inv, "XYZ ", nil
}

type identityTransform struct{}

func (identityTransform) Convert(src []float64) ([]float64, error) {
	dst := make([]float64, len(src))
	copy(dst, src)
	return dst, nil
}

// pipelineTransform chains device->PCS and PCS->device, bridging XYZ and
// Lab connection spaces when the two profiles disagree.
type pipelineTransform struct {
	toPCS   Transform
	fromPCS Transform
	srcPCS  string
	dstPCS  string
}

func (t *pipelineTransform) Convert(in []float64) ([]float64, error) {
	pcs, err := t.toPCS.Convert(in)
	if err != nil {
		return nil, err
	}
	switch {
	case t.srcPCS == t.dstPCS:
	case t.srcPCS == "XYZ " && t.dstPCS == "Lab ":
		pcs = xyzToLab(pcs)
	case t.srcPCS == "Lab " && t.dstPCS == "XYZ ":
		pcs = labToXYZ(pcs)
	default:
		return nil, fmt.Errorf("cannot bridge connection spaces %q and %q", t.srcPCS, t.dstPCS)
	}
	return t.fromPCS.Convert(pcs)
}

// basicTransform is the non-color-managed fallback. Its RGB to CMYK path
// is the documented naive inversion: C=1-R, M=1-G, Y=1-B, K=min(C,M,Y).
// Output will not match real ink density without a profile.
type basicTransform struct {
	src, dst Profile
}

func (t *basicTransform) Convert(in []float64) ([]float64, error) {
	srcCS, dstCS := t.src.ColorSpace(), t.dst.ColorSpace()
	if len(in) != numChannels(srcCS) {
		return nil, fmt.Errorf("input channels mismatch: expected %d, got %d", numChannels(srcCS), len(in))
	}

	switch {
	case srcCS == dstCS:
		out := make([]float64, len(in))
		copy(out, in)
		return out, nil
	case srcCS == "RGB " && dstCS == "CMYK":
		c, m, y := 1-in[0], 1-in[1], 1-in[2]
		k := math.Min(c, math.Min(m, y))
		return []float64{c, m, y, k}, nil
	case srcCS == "GRAY" && dstCS == "CMYK":
		return []float64{0, 0, 0, 1 - in[0]}, nil
	case srcCS == "CMYK" && dstCS == "RGB ":
		c, m, y, k := in[0], in[1], in[2], in[3]
		return []float64{(1 - c) * (1 - k), (1 - m) * (1 - k), (1 - y) * (1 - k)}, nil
	}
	return nil, fmt.Errorf("unsupported conversion %q to %q", srcCS, dstCS)
}

// matrixTRC is a matrix/TRC profile transform: per-channel gamma then a
// 3x3 matrix into XYZ.
type matrixTRC struct {
	gamma  [3]float64
	matrix [9]float64
}

func newMatrixTRC(p *ICCProfile) (*matrixTRC, error) {
	var t matrixTRC
	for i, sig := range []string{"rXYZ", "gXYZ", "bXYZ"} {
		col, err := p.ReadXYZTag(sig)
		if err != nil {
			return nil, err
		}
		t.matrix[i] = col[0]
		t.matrix[3+i] = col[1]
		t.matrix[6+i] = col[2]
	}
	for i, sig := range []string{"rTRC", "gTRC", "bTRC"} {
		g, err := p.ReadCurveTag(sig)
		if err != nil {
			return nil, err
		}
		t.gamma[i] = g
	}
	return &t, nil
}

func (t *matrixTRC) Convert(in []float64) ([]float64, error) {
	if len(in) < 3 {
		return nil, errors.New("input too short")
	}
	r := math.Pow(clamp01(in[0]), t.gamma[0])
	g := math.Pow(clamp01(in[1]), t.gamma[1])
	b := math.Pow(clamp01(in[2]), t.gamma[2])
	return []float64{
		t.matrix[0]*r + t.matrix[1]*g + t.matrix[2]*b,
		t.matrix[3]*r + t.matrix[4]*g + t.matrix[5]*b,
		t.matrix[6]*r + t.matrix[7]*g + t.matrix[8]*b,
	}, nil
}

// Inverse returns the XYZ-to-device direction of the transform.
func (t *matrixTRC) Inverse() (Transform, error) {
	m := mat.NewDense(3, 3, []float64{
		t.matrix[0], t.matrix[1], t.matrix[2],
		t.matrix[3], t.matrix[4], t.matrix[5],
		t.matrix[6], t.matrix[7], t.matrix[8],
	})
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return nil, fmt.Errorf("matrix/TRC not invertible: %w", err)
	}
	var out inverseMatrixTRC
	out.gamma = t.gamma
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.matrix[i*3+j] = inv.At(i, j)
		}
	}
	return &out, nil
}

type inverseMatrixTRC struct {
	gamma  [3]float64
	matrix [9]float64
}

func (t *inverseMatrixTRC) Convert(in []float64) ([]float64, error) {
	if len(in) < 3 {
		return nil, errors.New("input too short")
	}
	x, y, z := in[0], in[1], in[2]
	rLin := t.matrix[0]*x + t.matrix[1]*y + t.matrix[2]*z
	gLin := t.matrix[3]*x + t.matrix[4]*y + t.matrix[5]*z
	bLin := t.matrix[6]*x + t.matrix[7]*y + t.matrix[8]*z
	return []float64{
		math.Pow(math.Max(0, rLin), 1/t.gamma[0]),
		math.Pow(math.Max(0, gLin), 1/t.gamma[1]),
		math.Pow(math.Max(0, bLin), 1/t.gamma[2]),
	}, nil
}

// D50 white point, the ICC profile connection space illuminant.
const (
	d50X = 0.9642
	d50Y = 1.0
	d50Z = 0.8249
)

func xyzToLab(xyz []float64) []float64 {
	f := func(t float64) float64 {
		if t > 0.008856 {
			return math.Cbrt(t)
		}
		return 7.787*t + 16.0/116.0
	}
	fx := f(xyz[0] / d50X)
	fy := f(xyz[1] / d50Y)
	fz := f(xyz[2] / d50Z)
	// Lab values normalized to [0,1] ranges used by LUT tables: L/100,
	// (a+128)/255, (b+128)/255.
	l := 116*fy - 16
	a := 500 * (fx - fy)
	b := 200 * (fy - fz)
	return []float64{l / 100, (a + 128) / 255, (b + 128) / 255}
}

func labToXYZ(lab []float64) []float64 {
	l := lab[0] * 100
	a := lab[1]*255 - 128
	b := lab[2]*255 - 128

	fy := (l + 16) / 116
	fx := a/500 + fy
	fz := fy - b/200

	fInv := func(t float64) float64 {
		if t > 6.0/29.0 {
			return t * t * t
		}
		return (t - 16.0/116.0) / 7.787
	}
	return []float64{d50X * fInv(fx), d50Y * fInv(fy), d50Z * fInv(fz)}
}

func numChannels(cs string) int {
	switch cs {
	case "RGB ", "Lab ", "XYZ ":
		return 3
	case "CMYK":
		return 4
	case "GRAY":
		return 1
	}
	return 0
}
