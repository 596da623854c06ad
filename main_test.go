package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		contains    []string
		expectError bool
	}{
		{"lenses", []string{"lenses"}, []string{"singlet", "Spherical Mirror", "Built-in Lenses"}, false},
		{"list singlet", []string{"list", "singlet"}, []string{"Singlet", "517.642", "1*", "Img"}, false},
		{"trace marginal ray", []string{"trace", "singlet", "--pupil", "0,1"}, []string{"GLOBAL Z", "optical path delta"}, false},
		{"trace at wavelength", []string{"trace", "fold", "-w", "656.2725", "-p", "1,0"}, []string{"wavelength 656.2725 nm"}, false},
		{"apertures", []string{"apertures", "singlet"}, []string{"SEMI-DIAM", "LIMITED BY"}, false},
		{"fan", []string{"fan", "singlet", "--samples", "5"}, []string{"PY", "587.5618nm", "-1.000", "1.000"}, false},
		{"fan x", []string{"fan", "spectrometer", "-a", "x", "-n", "3"}, []string{"PX"}, false},
		{"opd map", []string{"opd", "mirror", "--grid", "5"}, []string{"rms", "."}, false},
		{"opd single ray", []string{"opd", "singlet", "--pupil", "0,1"}, []string{"opd -", "ekp"}, false},
		{"metrics", []string{"--metrics", "apertures", "mirror"}, []string{"seqoptics_rays_traced_total"}, false},

		{"unknown lens", []string{"list", "nonexistent"}, nil, true},
		{"missing argument", []string{"trace"}, nil, true},
		{"bad axis", []string{"fan", "singlet", "--axis", "z"}, nil, true},
		{"bad pupil", []string{"trace", "singlet", "--pupil", "1"}, nil, true},
		{"field out of range", []string{"opd", "singlet", "--field", "7"}, nil, true},
		{"ray misses", []string{"trace", "singlet", "--pupil", "0,20"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runCLI(t, tt.args...)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for %v, got output:\n%s", tt.args, out)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error for %v: %v", tt.args, err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("Output of %v does not contain %q:\n%s", tt.args, want, out)
				}
			}
		})
	}
}

func TestLensFile(t *testing.T) {
	dir := t.TempDir()
	lens := `# Lens: Plano Convex
# Group: Test Lenses
spec:
  wavelengths: [550]
  fields: [[0, 0], [0, 2]]
  entrance_radius: 3
prescription:
  object_distance: 80
  stop: 1
  surfaces:
    - {radius: 30, thickness: 4, index: 1.5}
    - {thickness: 55}
`
	path := filepath.Join(dir, "plano-convex.yaml")
	if err := os.WriteFile(path, []byte(lens), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, "--lens-dir", dir, "lenses")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Plano Convex") || !strings.Contains(out, path) {
		t.Errorf("lens file not listed:\n%s", out)
	}

	out, _, err = runCLI(t, "list", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Plano Convex") {
		t.Errorf("lens name not derived from the file name:\n%s", out)
	}
}

func TestVerboseAndSpans(t *testing.T) {
	_, stderr, err := runCLI(t, "-v", "--spans", "--workers", "2", "apertures", "singlet")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"lens built", "analysis.boundary_rays", "level=DEBUG"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr does not contain %q", want)
		}
	}
}
