package cmm

import (
	"errors"
	"math"
)

// srgbProfile is a synthesized sRGB source profile. Images carry no
// embedded profile in this pipeline, so exports assume sRGB input.
type srgbProfile struct{}

// SRGB returns the built-in sRGB IEC 61966-2.1 source profile.
func SRGB() Profile { return &srgbProfile{} }

func (*srgbProfile) Name() string       { return "sRGB IEC61966-2.1" }
func (*srgbProfile) ColorSpace() string { return "RGB " }
func (*srgbProfile) Class() string      { return "mntr" }
func (*srgbProfile) Data() []byte       { return nil }

// srgbToXYZ linearizes sRGB and maps to XYZ under the D50 connection
// space white point (Bradford-adapted primaries from the sRGB spec).
type srgbToXYZ struct{}

var srgbMatrix = [9]float64{
	0.4360747, 0.3850649, 0.1430804,
	0.2225045, 0.7168786, 0.0606169,
	0.0139322, 0.0971045, 0.7141733,
}

func (srgbToXYZ) Convert(in []float64) ([]float64, error) {
	if len(in) < 3 {
		return nil, errors.New("input too short")
	}
	r := srgbLinearize(clamp01(in[0]))
	g := srgbLinearize(clamp01(in[1]))
	b := srgbLinearize(clamp01(in[2]))
	return []float64{
		srgbMatrix[0]*r + srgbMatrix[1]*g + srgbMatrix[2]*b,
		srgbMatrix[3]*r + srgbMatrix[4]*g + srgbMatrix[5]*b,
		srgbMatrix[6]*r + srgbMatrix[7]*g + srgbMatrix[8]*b,
	}, nil
}

func srgbLinearize(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}
