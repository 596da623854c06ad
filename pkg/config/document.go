// Package config reads lens prescriptions and analysis settings from YAML and
// builds ready-to-trace models from them.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Document is a complete lens file: what to analyze and how
type Document struct {
	Name         string       `yaml:"name,omitempty"`
	Description  string       `yaml:"description,omitempty"`
	Settings     Settings     `yaml:"settings,omitempty"`
	Spec         Spec         `yaml:"spec"`
	Prescription Prescription `yaml:"prescription"`
}

// Settings tunes the analysis batches. Zero values fall back to defaults.
type Settings struct {
	Tolerance  float64 `yaml:"tolerance,omitempty" validate:"gte=0"`
	Workers    int     `yaml:"workers,omitempty" validate:"gte=0"`
	FanSamples int     `yaml:"fan_samples,omitempty" validate:"omitempty,gte=2"`
}

// Spec is the aperture, field and spectral description
type Spec struct {
	Wavelengths    []float64   `yaml:"wavelengths" validate:"required,min=1,dive,gt=0"`
	Reference      int         `yaml:"reference,omitempty" validate:"gte=0"`
	FieldType      string      `yaml:"field_type,omitempty" validate:"omitempty,oneof=height angle"`
	Fields         [][]float64 `yaml:"fields" validate:"required,min=1,dive,len=2"`
	EntranceRadius float64     `yaml:"entrance_radius" validate:"gt=0"`
	EntranceZ      float64     `yaml:"entrance_z,omitempty"`
	ExitPupilDist  float64     `yaml:"exit_pupil_dist,omitempty"`
}

// Prescription lists the interfaces between object and image. Stop counts
// from the object surface and defaults to the first interface.
type Prescription struct {
	ObjectDistance float64   `yaml:"object_distance,omitempty"`
	ObjectIndex    float64   `yaml:"object_index,omitempty" validate:"gte=0"`
	Stop           int       `yaml:"stop,omitempty" validate:"gte=0"`
	Surfaces       []Surface `yaml:"surfaces" validate:"required,min=1,dive"`
}

// Surface is one prescription row. The gap after it is filled with glass
// when Glass is a code such as "517.642", with a medium built from Index and
// VNumber otherwise, and with air when both are unset.
type Surface struct {
	Label     string    `yaml:"label,omitempty"`
	Curvature float64   `yaml:"curvature,omitempty"`
	Radius    float64   `yaml:"radius,omitempty"` // alternative to curvature, 0 is flat
	Conic     float64   `yaml:"conic,omitempty"`
	Aspheric  []float64 `yaml:"aspheric,omitempty"` // r^4, r^6, ... coefficients
	Thickness float64   `yaml:"thickness,omitempty"`
	Index     float64   `yaml:"index,omitempty" validate:"gte=0"`
	VNumber   float64   `yaml:"v_number,omitempty" validate:"gte=0"`
	Glass     string    `yaml:"glass,omitempty" validate:"omitempty,numeric"`
	Mode      string    `yaml:"mode,omitempty" validate:"omitempty,oneof=refract reflect phase"`
	Grating   *Grating  `yaml:"grating,omitempty" validate:"omitempty"`
	Decenter  *Decenter `yaml:"decenter,omitempty" validate:"omitempty"`
}

// Grating rules a diffraction grating on a phase surface
type Grating struct {
	LinesPerMM float64 `yaml:"lines_per_mm" validate:"gt=0"`
	Order      int     `yaml:"order,omitempty"`
}

// Decenter places a surface off the incoming axis
type Decenter struct {
	Type   string    `yaml:"type,omitempty" validate:"omitempty,oneof=DEC REV DAR BEN dec rev dar ben"`
	Offset []float64 `yaml:"offset,omitempty" validate:"omitempty,len=3"`
	Tilt   []float64 `yaml:"tilt,omitempty" validate:"omitempty,len=3"` // alpha, beta, gamma in degrees
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode reads and validates a document
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config: empty document")
		}
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Parse decodes a document held in memory
func Parse(data []byte) (*Document, error) {
	return Decode(bytes.NewReader(data))
}

// Encode writes doc as YAML
func Encode(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return enc.Close()
}

// Validate checks field constraints and the cross-field rules the tags
// cannot express.
func (d *Document) Validate() error {
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("config: invalid document: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: invalid document: %w", err)
	}

	if d.Spec.Reference >= len(d.Spec.Wavelengths) {
		return fmt.Errorf("config: reference wavelength %d of %d", d.Spec.Reference, len(d.Spec.Wavelengths))
	}
	if d.Prescription.Stop > len(d.Prescription.Surfaces) {
		return fmt.Errorf("config: stop %d beyond the last surface %d", d.Prescription.Stop, len(d.Prescription.Surfaces))
	}
	for i, s := range d.Prescription.Surfaces {
		if s.Curvature != 0 && s.Radius != 0 {
			return fmt.Errorf("config: surface %d sets both curvature and radius", i+1)
		}
		if (s.Mode == "phase") != (s.Grating != nil) {
			return fmt.Errorf("config: surface %d: a grating needs mode phase and vice versa", i+1)
		}
	}
	return nil
}
