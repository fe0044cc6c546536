package main

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFrameName(t *testing.T) {
	tests := []struct {
		output string
		frame  int
		want   string
	}{
		{"out.png", 0, "out-0001.png"},
		{"dir/anim.png", 41, "dir/anim-0042.png"},
		{"noext", 2, "noext-0003.png"},
	}
	for _, tt := range tests {
		if got := frameName(tt.output, tt.frame); got != tt.want {
			t.Errorf("frameName(%q, %d) = %q, want %q", tt.output, tt.frame, got, tt.want)
		}
	}
}

func TestDecodeSettings(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    func(o options) bool
		wantErr bool
	}{
		{"empty", "", func(o options) bool { return o == defaultOptions() }, false},
		{"size", "width: 300\nheight: 200\n", func(o options) bool {
			return o.Width == 300 && o.Height == 200
		}, false},
		{"variation and aa", "variation: XYZ\naa: true\n", func(o options) bool {
			return o.Variation == "XYZ" && o.Antialias
		}, false},
		{"unknown key", "colour: red\n", nil, true},
		{"bad size", "width: -1\n", nil, true},
		{"bad zoom", "zoom: 0\n", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			err := decodeSettings(strings.NewReader(tt.yaml), &o)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeSettings() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.want != nil && !tt.want(o) {
				t.Errorf("decodeSettings() = %+v", o)
			}
		})
	}
}

func TestParseArgsFlagsWinOverSettings(t *testing.T) {
	dir := t.TempDir()
	settings := filepath.Join(dir, "s.yaml")
	if err := os.WriteFile(settings, []byte("width: 300\nheight: 300\nvariation: AB\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	var stderr bytes.Buffer
	o, file, err := parseArgs([]string{"-config", settings, "-w", "640", "x.cfdg"}, &stderr)
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}
	if file != "x.cfdg" {
		t.Errorf("file = %q, want x.cfdg", file)
	}
	if o.Width != 640 || o.Height != 300 || o.Variation != "AB" {
		t.Errorf("options = %+v", o)
	}
}

func TestParseArgsUsage(t *testing.T) {
	var stderr bytes.Buffer
	_, _, err := parseArgs(nil, &stderr)
	if !errors.Is(err, errUsage) {
		t.Errorf("parseArgs(nil) error = %v, want errUsage", err)
	}
	if !strings.Contains(stderr.String(), "usage:") {
		t.Errorf("no usage printed: %q", stderr.String())
	}
}

const grid = `
startshape Grid
shape Grid {
	loop 3 [x 1.2] loop 3 [y 1.2] SQUARE [b 0.5]
}
`

func TestRunWritesPNG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "grid.cfdg")
	if err := os.WriteFile(src, []byte(grid), 0o600); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "grid.png")

	var stderr bytes.Buffer
	err := run(context.Background(), []string{"-o", out, "-w", "60", "-h", "60", "-v", "A", src}, &stderr)
	if err != nil {
		t.Fatalf("run() error = %v\n%s", err, stderr.String())
	}
	if !strings.Contains(stderr.String(), "9 shapes") {
		t.Errorf("statistics missing: %q", stderr.String())
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("output is not a PNG: %v", err)
	}
}

func TestRunReportsDiagnostics(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.cfdg")
	if err := os.WriteFile(src, []byte("startshape A\nshape A { CIRCLE [x 1 }\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	var stderr bytes.Buffer
	err := run(context.Background(), []string{"-q", "-o", filepath.Join(dir, "bad.png"), src}, &stderr)
	if err == nil {
		t.Fatal("run() succeeded on a broken program")
	}
	if !strings.Contains(stderr.String(), "bad.cfdg:") {
		t.Errorf("diagnostic without position: %q", stderr.String())
	}
}
