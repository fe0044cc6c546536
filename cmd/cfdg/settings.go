package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// loadSettings reads a YAML settings file over o. Keys follow the flag
// names:
//
//	width: 1024
//	height: 768
//	variation: ABC
//	minsize: 0.5
//	aa: true
func loadSettings(path string, o *options) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	defer f.Close()
	return decodeSettings(f, o)
}

func decodeSettings(r io.Reader, o *options) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(o); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("settings: %w", err)
	}
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("settings: invalid size %dx%d", o.Width, o.Height)
	}
	if o.Zoom <= 0 {
		return fmt.Errorf("settings: invalid zoom %g", o.Zoom)
	}
	return nil
}
