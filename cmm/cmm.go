// Package cmm performs the color conversions of the export pipeline:
// profile-managed sRGB to CMYK transforms when an ICC profile is supplied,
// and a documented naive channel inversion when one is not.
package cmm

import (
	"errors"
	"fmt"
)

// Profile represents a color profile (e.g., ICC).
type Profile interface {
	// Name returns the profile description.
	Name() string
	// ColorSpace returns the data color space signature ("RGB ", "CMYK").
	ColorSpace() string
	// Class returns the profile class ("mntr", "prtr").
	Class() string
	// Data returns the raw profile bytes; nil for synthesized profiles.
	Data() []byte
}

// Transform converts a single color value between two profiles' spaces.
// Channel values are normalized to [0, 1].
type Transform interface {
	Convert(src []float64) ([]float64, error)
}

// Factory creates profiles and transforms.
type Factory interface {
	NewProfile(data []byte) (Profile, error)
	NewTransform(src, dst Profile, intent RenderingIntent) (Transform, error)
}

// RenderingIntent selects the gamut-mapping strategy of a profile transform.
type RenderingIntent int

const (
	IntentPerceptual RenderingIntent = iota
	IntentRelativeColorimetric
	IntentSaturation
	IntentAbsoluteColorimetric
)

func (i RenderingIntent) String() string {
	switch i {
	case IntentPerceptual:
		return "perceptual"
	case IntentRelativeColorimetric:
		return "relative"
	case IntentSaturation:
		return "saturation"
	case IntentAbsoluteColorimetric:
		return "absolute"
	}
	return fmt.Sprintf("intent(%d)", int(i))
}

// ErrUnknownIntent is returned for intent names outside the four ICC intents.
var ErrUnknownIntent = errors.New("unknown rendering intent")

// ParseIntent converts an intent name to its constant. Unknown names are a
// configuration error and are rejected here, before any job starts.
func ParseIntent(s string) (RenderingIntent, error) {
	switch s {
	case "perceptual":
		return IntentPerceptual, nil
	case "relative":
		return IntentRelativeColorimetric, nil
	case "saturation":
		return IntentSaturation, nil
	case "absolute":
		return IntentAbsoluteColorimetric, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownIntent, s)
	}
}
