package cmm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// LUT is a parsed lut8Type/lut16Type transform: an optional 3x3 matrix,
// per-channel input curves, an N-dimensional color lookup table, and
// per-channel output curves. All table values are normalized to [0, 1].
type LUT struct {
	InputChannels  uint8
	OutputChannels uint8
	GridPoints     uint8
	Matrix         [9]float64
	InputTables    [][]float64
	CLUT           []float64
	OutputTables   [][]float64
}

// ReadLUTTag parses a LUT tag such as A2B0 or B2A1.
func (p *ICCProfile) ReadLUTTag(sig string) (*LUT, error) {
	data, ok := p.GetTag(sig)
	if !ok {
		return nil, fmt.Errorf("tag %q not found", sig)
	}
	if len(data) < 8 {
		return nil, fmt.Errorf("tag %q too short", sig)
	}
	switch string(data[0:4]) {
	case "mft1":
		return parseLUT(data, 1)
	case "mft2":
		return parseLUT(data, 2)
	}
	return nil, fmt.Errorf("tag %q: unsupported LUT type", sig)
}

// parseLUT handles both the 8-bit (width 1) and 16-bit (width 2) layouts;
// they differ only in sample width and in where the table sizes live.
func parseLUT(data []byte, width int) (*LUT, error) {
	if len(data) < 52 {
		return nil, errors.New("LUT tag truncated")
	}
	lut := &LUT{
		InputChannels:  data[8],
		OutputChannels: data[9],
		GridPoints:     data[10],
	}
	if lut.InputChannels == 0 || lut.OutputChannels == 0 || lut.GridPoints < 2 {
		return nil, errors.New("LUT tag has degenerate dimensions")
	}
	for i := 0; i < 9; i++ {
		lut.Matrix[i] = s15Fixed16ToFloat(binary.BigEndian.Uint32(data[12+i*4 : 16+i*4]))
	}

	inputEntries, outputEntries := 256, 256
	offset := 48
	if width == 2 {
		inputEntries = int(binary.BigEndian.Uint16(data[48:50]))
		outputEntries = int(binary.BigEndian.Uint16(data[50:52]))
		offset = 52
	}

	readTable := func(n int) ([]float64, error) {
		size := n * width
		if offset+size > len(data) {
			return nil, errors.New("LUT tables truncated")
		}
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			if width == 1 {
				out[i] = float64(data[offset]) / 255.0
			} else {
				out[i] = float64(binary.BigEndian.Uint16(data[offset:offset+2])) / 65535.0
			}
			offset += width
		}
		return out, nil
	}

	var err error
	lut.InputTables = make([][]float64, lut.InputChannels)
	for c := range lut.InputTables {
		if lut.InputTables[c], err = readTable(inputEntries); err != nil {
			return nil, err
		}
	}

	gridCells := intPow(int(lut.GridPoints), int(lut.InputChannels))
	if lut.CLUT, err = readTable(gridCells * int(lut.OutputChannels)); err != nil {
		return nil, err
	}

	lut.OutputTables = make([][]float64, lut.OutputChannels)
	for c := range lut.OutputTables {
		if lut.OutputTables[c], err = readTable(outputEntries); err != nil {
			return nil, err
		}
	}
	return lut, nil
}

// Convert runs the transform: matrix (3-channel input only), input curves,
// CLUT interpolation, output curves.
func (lut *LUT) Convert(in []float64) ([]float64, error) {
	if len(in) != int(lut.InputChannels) {
		return nil, errors.New("input channels mismatch")
	}

	tmp := make([]float64, len(in))
	copy(tmp, in)

	if lut.InputChannels == 3 {
		x := tmp[0]*lut.Matrix[0] + tmp[1]*lut.Matrix[1] + tmp[2]*lut.Matrix[2]
		y := tmp[0]*lut.Matrix[3] + tmp[1]*lut.Matrix[4] + tmp[2]*lut.Matrix[5]
		z := tmp[0]*lut.Matrix[6] + tmp[1]*lut.Matrix[7] + tmp[2]*lut.Matrix[8]
		tmp[0], tmp[1], tmp[2] = x, y, z
	}

	for c := range tmp {
		tmp[c] = interp1D(tmp[c], lut.InputTables[c])
	}

	var clutOut []float64
	if lut.InputChannels == 3 {
		clutOut = lut.interp3D(tmp)
	} else {
		clutOut = lut.interpNearest(tmp)
	}

	out := make([]float64, lut.OutputChannels)
	for c := range out {
		out[c] = interp1D(clutOut[c], lut.OutputTables[c])
	}
	return out, nil
}

func interp1D(val float64, table []float64) float64 {
	if val <= 0 {
		return table[0]
	}
	if val >= 1 {
		return table[len(table)-1]
	}
	f := val * float64(len(table)-1)
	idx := int(f)
	frac := f - float64(idx)
	return table[idx]*(1-frac) + table[idx+1]*frac
}

// interpNearest picks the nearest grid point. Used for inputs with more
// than three channels, where full N-linear interpolation is not worth the
// complexity for this pipeline.
func (lut *LUT) interpNearest(in []float64) []float64 {
	gp := int(lut.GridPoints)
	idx := 0
	for i := 0; i < int(lut.InputChannels); i++ {
		v := clamp01(in[i])
		gridIdx := int(v*float64(gp-1) + 0.5)
		// The first dimension varies least rapidly.
		idx += gridIdx * intPow(gp, int(lut.InputChannels)-1-i)
	}
	out := make([]float64, lut.OutputChannels)
	copy(out, lut.CLUT[idx*int(lut.OutputChannels):])
	return out
}

// interp3D performs trilinear interpolation for three-channel inputs.
func (lut *LUT) interp3D(in []float64) []float64 {
	gp := int(lut.GridPoints)
	g := float64(gp - 1)

	x, y, z := clamp01(in[0])*g, clamp01(in[1])*g, clamp01(in[2])*g
	x0, y0, z0 := int(x), int(y), int(z)
	if x0 > gp-2 {
		x0 = gp - 2
	}
	if y0 > gp-2 {
		y0 = gp - 2
	}
	if z0 > gp-2 {
		z0 = gp - 2
	}
	dx, dy, dz := x-float64(x0), y-float64(y0), z-float64(z0)

	outCh := int(lut.OutputChannels)
	at := func(ix, iy, iz, ch int) float64 {
		idx := ix*gp*gp + iy*gp + iz
		return lut.CLUT[idx*outCh+ch]
	}

	out := make([]float64, outCh)
	for c := 0; c < outCh; c++ {
		c00 := at(x0, y0, z0, c)*(1-dz) + at(x0, y0, z0+1, c)*dz
		c01 := at(x0, y0+1, z0, c)*(1-dz) + at(x0, y0+1, z0+1, c)*dz
		c10 := at(x0+1, y0, z0, c)*(1-dz) + at(x0+1, y0, z0+1, c)*dz
		c11 := at(x0+1, y0+1, z0, c)*(1-dz) + at(x0+1, y0+1, z0+1, c)*dz

		c0 := c00*(1-dy) + c01*dy
		c1 := c10*(1-dy) + c11*dy
		out[c] = c0*(1-dx) + c1*dx
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func intPow(base, exp int) int {
	out := 1
	for i := 0; i < exp; i++ {
		out *= base
	}
	return out
}
