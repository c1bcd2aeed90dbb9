package brand

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
)

// Loader reads a brand template from a YAML file. Boxes in the file are expressed in inches.
//
//	name: Corporate
//	slide_width: 10
//	slide_height: 7.5
//	layouts:
//	  - name: Title Slide
//	    regions:
//	      - {kind: title, name: Title, x: 0.5, y: 2, w: 9, h: 1.2}
type Loader struct {
	path string
}

func NewLoader(path string) *Loader {
	return &Loader{path: strings.TrimSpace(path)}
}

type templateFile struct {
	Name        string       `yaml:"name"`
	SlideWidth  float64      `yaml:"slide_width"`
	SlideHeight float64      `yaml:"slide_height"`
	Layouts     []layoutFile `yaml:"layouts"`
}

type layoutFile struct {
	Name    string       `yaml:"name"`
	Regions []regionFile `yaml:"regions"`
}

type regionFile struct {
	Kind string  `yaml:"kind"`
	Name string  `yaml:"name"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	W    float64 `yaml:"w"`
	H    float64 `yaml:"h"`
}

// Load returns the configured template, or the built-in default when no path is set or the
// file does not exist.
func (l *Loader) Load(ctx context.Context) (*domain.BrandTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read brand template: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*domain.BrandTemplate, error) {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse brand template", err)
	}
	if len(file.Layouts) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse brand template", errors.New("template declares no layouts"))
	}
	tpl := &domain.BrandTemplate{
		Name:        file.Name,
		SlideWidth:  domain.Inches(orDefault(file.SlideWidth, 10)),
		SlideHeight: domain.Inches(orDefault(file.SlideHeight, 7.5)),
	}
	if tpl.Name == "" {
		tpl.Name = "custom"
	}
	for i, layout := range file.Layouts {
		spec := domain.LayoutSpec{Name: layout.Name}
		if spec.Name == "" {
			spec.Name = fmt.Sprintf("Layout %d", i+1)
		}
		for _, region := range layout.Regions {
			kind, err := regionKind(region.Kind)
			if err != nil {
				return nil, domain.WrapError(domain.ErrInvalidInput, "parse brand template", fmt.Errorf("layout %q: %w", spec.Name, err))
			}
			spec.Regions = append(spec.Regions, domain.RegionSpec{
				Kind: kind,
				Name: region.Name,
				Box: domain.Box{
					X: domain.Inches(region.X),
					Y: domain.Inches(region.Y),
					W: domain.Inches(region.W),
					H: domain.Inches(region.H),
				},
			})
		}
		tpl.Layouts = append(tpl.Layouts, spec)
	}
	return tpl, nil
}

func regionKind(raw string) (domain.RegionKind, error) {
	switch kind := domain.RegionKind(strings.ToLower(strings.TrimSpace(raw))); kind {
	case domain.RegionTitle, domain.RegionSubtitle, domain.RegionBody:
		return kind, nil
	default:
		return "", fmt.Errorf("unsupported region kind %q", raw)
	}
}

func orDefault(v, fallback float64) float64 {
	if v <= 0 {
		return fallback
	}
	return v
}
