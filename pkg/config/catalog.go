package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-sequential-optics/pkg/material"
)

// LensInfo describes a lens available to the CLI
type LensInfo struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Group       string `yaml:"group"`
	Type        string `yaml:"type"`      // "builtin" or "file"
	FilePath    string `yaml:"file_path"` // file type only
}

const builtinGroup = "Built-in Lenses"

// builtins are the lenses compiled into the binary
var builtins = map[string]func() *Document{
	"singlet":      Singlet,
	"mirror":       SphericalMirror,
	"fold":         FoldedDoublet,
	"spectrometer": GratingSpectrometer,
}

// Builtin returns a fresh copy of a compiled-in lens
func Builtin(id string) (*Document, bool) {
	f, ok := builtins[id]
	if !ok {
		return nil, false
	}
	return f(), true
}

// Load resolves a built-in lens id or the path of a lens file
func Load(nameOrPath string) (*Document, error) {
	if nameOrPath == "" {
		return nil, fmt.Errorf("config: no lens given")
	}
	if doc, ok := Builtin(nameOrPath); ok {
		return doc, nil
	}

	f, err := os.Open(nameOrPath)
	if err != nil {
		return nil, fmt.Errorf("config: %q is neither a built-in lens nor a readable file: %w", nameOrPath, err)
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", nameOrPath, err)
	}
	if doc.Name == "" {
		doc.Name = titleCase(strings.TrimSuffix(filepath.Base(nameOrPath), filepath.Ext(nameOrPath)))
	}
	return doc, nil
}

// ListLensFiles scans dir for *.yaml lens files. A missing directory yields
// an empty list.
func ListLensFiles(dir string) ([]LensInfo, error) {
	if _, err := os.Stat(dir); err != nil {
		return []LensInfo{}, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("config: scan %s: %w", dir, err)
	}

	lenses := make([]LensInfo, 0, len(files))
	for _, path := range files {
		info, err := ParseLensMetadata(path)
		if err != nil {
			return nil, err
		}
		lenses = append(lenses, info)
	}
	sort.Slice(lenses, func(i, j int) bool {
		return lenses[i].Name < lenses[j].Name
	})
	return lenses, nil
}

// ParseLensMetadata reads the "# Key: value" comment header of a lens file.
// Name falls back to the title-cased file name, Group to "Lens Files".
func ParseLensMetadata(path string) (LensInfo, error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	info := LensInfo{
		ID:       "file:" + base,
		Name:     titleCase(base),
		Group:    "Lens Files",
		Type:     "file",
		FilePath: path,
	}

	f, err := os.Open(path)
	if err != nil {
		return info, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "#") {
			break
		}
		content := strings.TrimSpace(strings.TrimPrefix(line, "#"))
		key, value, ok := strings.Cut(content, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Lens":
			info.Name = value
		case "Description":
			info.Description = value
		case "Group":
			info.Group = value
		}
	}
	return info, scanner.Err()
}

// ListLenses returns the built-in lenses followed by the lens files in dir
func ListLenses(dir string) ([]LensInfo, error) {
	ids := make([]string, 0, len(builtins))
	for id := range builtins {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	lenses := make([]LensInfo, 0, len(ids))
	for _, id := range ids {
		doc := builtins[id]()
		lenses = append(lenses, LensInfo{
			ID:          id,
			Name:        doc.Name,
			Description: doc.Description,
			Group:       builtinGroup,
			Type:        "builtin",
		})
	}

	files, err := ListLensFiles(dir)
	if err != nil {
		return nil, err
	}
	return append(lenses, files...), nil
}

// titleCase converts a filename-style string to title case
// e.g., "cooke-triplet" -> "Cooke Triplet"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}

// Singlet is a biconvex lens imaging an axial object 100 in front of it
func Singlet() *Document {
	return &Document{
		Name:        "Singlet",
		Description: "Biconvex BK7 singlet, object at 100",
		Spec: Spec{
			Wavelengths:    []float64{material.WavelengthF, material.WavelengthD, material.WavelengthC},
			Reference:      1,
			Fields:         [][]float64{{0, 0}, {0, 5}},
			EntranceRadius: 5,
		},
		Prescription: Prescription{
			ObjectDistance: 100,
			Stop:           1,
			Surfaces: []Surface{
				{Label: "front", Radius: 50, Thickness: 5, Glass: "517.642"},
				{Label: "back", Radius: -50, Thickness: 45},
			},
		},
	}
}

// SphericalMirror is a concave mirror imaging its center of curvature onto
// itself, free of aberration on axis.
func SphericalMirror() *Document {
	return &Document{
		Name:        "Spherical Mirror",
		Description: "Concave mirror at its center of curvature",
		Spec: Spec{
			Wavelengths:    []float64{material.WavelengthD},
			Fields:         [][]float64{{0, 0}, {0, 1}},
			EntranceRadius: 5,
		},
		Prescription: Prescription{
			ObjectDistance: 50,
			Stop:           1,
			Surfaces: []Surface{
				{Label: "mirror", Radius: -50, Thickness: -50, Mode: "reflect"},
			},
		},
	}
}

// FoldedDoublet is an achromatic doublet folded by a 45 degree mirror
func FoldedDoublet() *Document {
	return &Document{
		Name:        "Folded Doublet",
		Description: "Cemented achromat with a fold mirror",
		Spec: Spec{
			Wavelengths:    []float64{material.WavelengthF, material.WavelengthD, material.WavelengthC},
			Reference:      1,
			FieldType:      "angle",
			Fields:         [][]float64{{0, 0}, {0, 1}, {1, 0}},
			EntranceRadius: 10,
		},
		Prescription: Prescription{
			ObjectDistance: 1e10,
			Stop:           1,
			Surfaces: []Surface{
				{Label: "crown", Radius: 61.07, Thickness: 6, Index: 1.5168, VNumber: 64.17},
				{Label: "cement", Radius: -44.6, Thickness: 2.5, Index: 1.6727, VNumber: 32.21},
				{Label: "flint", Radius: -129.2, Thickness: 40},
				{
					Label: "fold", Thickness: -57, Mode: "reflect",
					Decenter: &Decenter{Type: "BEN", Tilt: []float64{45, 0, 0}},
				},
			},
		},
	}
}

// GratingSpectrometer disperses a collimated beam with a transmission grating
// and focuses the first order.
func GratingSpectrometer() *Document {
	return &Document{
		Name:        "Grating Spectrometer",
		Description: "Transmission grating in front of a focusing singlet",
		Spec: Spec{
			Wavelengths:    []float64{500, material.WavelengthD, 650},
			Reference:      1,
			FieldType:      "angle",
			Fields:         [][]float64{{0, 0}},
			EntranceRadius: 4,
		},
		Prescription: Prescription{
			ObjectDistance: 1e10,
			Stop:           1,
			Surfaces: []Surface{
				{Label: "grating", Thickness: 10, Mode: "phase", Grating: &Grating{LinesPerMM: 100, Order: 1}},
				{Label: "lens", Radius: 51.5, Thickness: 4, Glass: "517.642"},
				{Radius: -51.5, Thickness: 48},
			},
		},
	}
}
