package cmm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// ICCProfile implements Profile for ICC data. The header and tag table are
// parsed eagerly; tag contents are parsed on demand.
type ICCProfile struct {
	data []byte
	tags map[string][]byte
}

const iccHeaderSize = 128

// NewICCProfile parses an ICC profile from raw bytes.
func NewICCProfile(data []byte) (*ICCProfile, error) {
	if len(data) < iccHeaderSize+4 {
		return nil, errors.New("invalid ICC profile: data too short")
	}
	if string(data[36:40]) != "acsp" {
		return nil, errors.New("invalid ICC profile: missing acsp signature")
	}

	count := binary.BigEndian.Uint32(data[iccHeaderSize:])
	tableEnd := iccHeaderSize + 4 + int(count)*12
	if count > 1024 || tableEnd > len(data) {
		return nil, errors.New("invalid ICC profile: tag table truncated")
	}

	tags := make(map[string][]byte, count)
	for i := 0; i < int(count); i++ {
		entry := data[iccHeaderSize+4+i*12:]
		sig := string(entry[0:4])
		offset := binary.BigEndian.Uint32(entry[4:8])
		size := binary.BigEndian.Uint32(entry[8:12])
		if int(offset)+int(size) > len(data) {
			return nil, fmt.Errorf("invalid ICC profile: tag %q out of bounds", sig)
		}
		tags[sig] = data[offset : offset+size]
	}
	return &ICCProfile{data: data, tags: tags}, nil
}

// LoadProfile reads and parses an ICC profile file.
func LoadProfile(path string) (*ICCProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ICC profile: %w", err)
	}
	p, err := NewICCProfile(data)
	if err != nil {
		return nil, fmt.Errorf("parse ICC profile %s: %w", path, err)
	}
	return p, nil
}

// Name returns the profile description from the desc tag.
func (p *ICCProfile) Name() string {
	if data, ok := p.tags["desc"]; ok && len(data) > 12 && string(data[0:4]) == "desc" {
		n := binary.BigEndian.Uint32(data[8:12])
		if n > 0 && 12+int(n) <= len(data) {
			s := data[12 : 12+n]
			// The count includes the trailing NUL.
			for len(s) > 0 && s[len(s)-1] == 0 {
				s = s[:len(s)-1]
			}
			return string(s)
		}
	}
	return "ICC Profile"
}

// ColorSpace returns the data color space signature (header bytes 16-20).
func (p *ICCProfile) ColorSpace() string { return string(p.data[16:20]) }

// Class returns the profile class (header bytes 12-16).
func (p *ICCProfile) Class() string { return string(p.data[12:16]) }

// PCS returns the profile connection space signature (header bytes 20-24).
func (p *ICCProfile) PCS() string { return string(p.data[20:24]) }

// Data returns the raw profile bytes.
func (p *ICCProfile) Data() []byte { return p.data }

// GetTag returns the raw contents of a tag.
func (p *ICCProfile) GetTag(sig string) ([]byte, bool) {
	data, ok := p.tags[sig]
	return data, ok
}

// ReadXYZTag parses an XYZType tag into its three s15.16 components.
func (p *ICCProfile) ReadXYZTag(sig string) ([3]float64, error) {
	data, ok := p.tags[sig]
	if !ok {
		return [3]float64{}, fmt.Errorf("tag %q not found", sig)
	}
	if len(data) < 20 || string(data[0:4]) != "XYZ " {
		return [3]float64{}, fmt.Errorf("tag %q is not an XYZ type", sig)
	}
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = s15Fixed16ToFloat(binary.BigEndian.Uint32(data[8+i*4 : 12+i*4]))
	}
	return out, nil
}

// ReadCurveTag parses a curveType or parametricCurveType tag into a gamma
// exponent. Sampled table curves are reported as unsupported; callers fall
// back to LUT transforms in that case.
func (p *ICCProfile) ReadCurveTag(sig string) (float64, error) {
	data, ok := p.tags[sig]
	if !ok {
		return 0, fmt.Errorf("tag %q not found", sig)
	}
	if len(data) < 12 {
		return 0, fmt.Errorf("tag %q too short", sig)
	}
	switch string(data[0:4]) {
	case "curv":
		n := binary.BigEndian.Uint32(data[8:12])
		switch n {
		case 0:
			return 1.0, nil
		case 1:
			if len(data) < 14 {
				return 0, fmt.Errorf("tag %q truncated", sig)
			}
			// u8.8 fixed point gamma.
			return float64(binary.BigEndian.Uint16(data[12:14])) / 256.0, nil
		default:
			return 0, fmt.Errorf("tag %q: sampled curves unsupported", sig)
		}
	case "para":
		fn := binary.BigEndian.Uint16(data[8:10])
		if fn != 0 {
			return 0, fmt.Errorf("tag %q: parametric function %d unsupported", sig, fn)
		}
		if len(data) < 16 {
			return 0, fmt.Errorf("tag %q truncated", sig)
		}
		return s15Fixed16ToFloat(binary.BigEndian.Uint32(data[12:16])), nil
	}
	return 0, fmt.Errorf("tag %q is not a curve type", sig)
}

func s15Fixed16ToFloat(v uint32) float64 {
	return float64(int32(v)) / 65536.0
}
