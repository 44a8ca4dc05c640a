package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/yeremiapane/restaurant-pos/printing"
	"gopkg.in/yaml.v3"
)

type printersFile struct {
	Printers []printing.Printer `yaml:"printers"`
}

// LoadPrinters reads the printer routing table. A missing file means no printers.
func LoadPrinters(path string) ([]printing.Printer, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read printers file: %w", err)
	}
	return ParsePrinters(data)
}

func ParsePrinters(data []byte) ([]printing.Printer, error) {
	var file printersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse printers file: %w", err)
	}

	seen := map[string]bool{}
	for i := range file.Printers {
		p := &file.Printers[i]
		if p.Name == "" {
			return nil, fmt.Errorf("printer %d has no name", i)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate printer %q", p.Name)
		}
		seen[p.Name] = true
		if p.PaperWidth == 0 {
			p.PaperWidth = 80
		}
		if p.PaperWidth != 58 && p.PaperWidth != 80 {
			return nil, fmt.Errorf("printer %q: paper width must be 58 or 80", p.Name)
		}
	}
	return file.Printers, nil
}
