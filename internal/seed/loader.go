// Package seed writes the sample items on first start.
package seed

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/demo-api/internal/domain"
)

//go:embed seed.yaml
var defaultSeed []byte

// File is the on-disk layout of a seed file.
type File struct {
	Items []domain.NewItem `yaml:"items"`
}

// Loader reads seed items from a YAML file, or from the embedded
// sample set when no path is configured.
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load parses and validates the seed items.
func (l *Loader) Load() ([]domain.NewItem, error) {
	data := defaultSeed
	source := "embedded seed"
	if l.filePath != "" {
		var err error
		data, err = os.ReadFile(l.filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
		source = l.filePath
	}
	return parse(data, source)
}

func parse(data []byte, source string) ([]domain.NewItem, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	if len(f.Items) == 0 {
		return nil, fmt.Errorf("%s contains no items", source)
	}

	var errs []error
	for i := range f.Items {
		if err := domain.ValidateNewItem(&f.Items[i]); err != nil {
			errs = append(errs, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		f.Items[i].Normalize()
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", source, err)
	}
	return f.Items, nil
}
