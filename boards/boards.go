// Package boards loads board files: YAML documents describing cards
// and connectors. The starter board ships embedded so a fresh install
// opens onto something explorable.
package boards

import (
	"embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/milk9111/pinboard/ecs/component"
	"github.com/milk9111/pinboard/geom"
	"github.com/milk9111/pinboard/store"
)

//go:embed starter.yaml
var embedded embed.FS

// File is one parsed board document.
type File struct {
	Name       string     `yaml:"name"`
	Cards      []CardSpec `yaml:"cards"`
	Connectors []EdgeSpec `yaml:"connectors"`
}

type CardSpec struct {
	ID       string   `yaml:"id"`
	Kind     string   `yaml:"kind"`
	Title    string   `yaml:"title"`
	Body     string   `yaml:"body"`
	Color    Color    `yaml:"color"`
	Bounds   RectSpec `yaml:"bounds"`
	Z        int      `yaml:"z"`
	Priority float64  `yaml:"priority"`
	Pinned   bool     `yaml:"pinned"`
}

type RectSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

type EdgeSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Color parses "#rrggbb" or "#rrggbbaa" from YAML into 0xRRGGBBAA.
type Color uint32

func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("boards: color: %w", err)
	}
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "#")
	switch len(raw) {
	case 6:
		raw += "ff"
	case 8:
	default:
		return fmt.Errorf("boards: color %q: want rrggbb or rrggbbaa", raw)
	}
	v, err := strconv.ParseUint(raw, 16, 32)
	if err != nil {
		return fmt.Errorf("boards: color %q: %w", raw, err)
	}
	*c = Color(v)
	return nil
}

// Load reads a board file from disk, falling back to the embedded copy
// so shipped boards work without any files installed.
func Load(filename string) (*File, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		data, err = embedded.ReadFile(filename)
	}
	if err != nil {
		return nil, fmt.Errorf("boards: load %s: %w", filename, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("boards: parse %s: %w", filename, err)
	}
	return &f, nil
}

// Starter returns the embedded welcome board.
func Starter() (*File, error) {
	return Load("starter.yaml")
}

// Rows converts the document into store rows ready for insertion.
func (f *File) Rows() ([]store.Card, []store.Connector, error) {
	cards := make([]store.Card, 0, len(f.Cards))
	for i, spec := range f.Cards {
		kind, err := kindFromString(spec.Kind)
		if err != nil {
			return nil, nil, fmt.Errorf("boards: card %d: %w", i, err)
		}
		id := uuid.New()
		if spec.ID != "" {
			id, err = uuid.Parse(spec.ID)
			if err != nil {
				return nil, nil, fmt.Errorf("boards: card %d id %q: %w", i, spec.ID, err)
			}
		}
		bounds := geom.NewRect(spec.Bounds.X, spec.Bounds.Y, spec.Bounds.X+spec.Bounds.W, spec.Bounds.Y+spec.Bounds.H)
		if !bounds.Valid() {
			return nil, nil, fmt.Errorf("boards: card %d: bounds %+v have no area", i, spec.Bounds)
		}
		z := spec.Z
		if z == 0 {
			z = i + 1
		}
		cards = append(cards, store.Card{
			ID:       id,
			Kind:     kind,
			Title:    spec.Title,
			Body:     strings.TrimRight(spec.Body, "\n"),
			Color:    uint32(spec.Color),
			Revision: 1,
			Bounds:   bounds,
			Z:        z,
			Priority: spec.Priority,
			Pinned:   spec.Pinned,
		})
	}

	edges := make([]store.Connector, 0, len(f.Connectors))
	for i, spec := range f.Connectors {
		from, err := uuid.Parse(spec.From)
		if err != nil {
			return nil, nil, fmt.Errorf("boards: connector %d from %q: %w", i, spec.From, err)
		}
		to, err := uuid.Parse(spec.To)
		if err != nil {
			return nil, nil, fmt.Errorf("boards: connector %d to %q: %w", i, spec.To, err)
		}
		edges = append(edges, store.Connector{ID: uuid.New(), From: from, To: to})
	}

	return cards, edges, nil
}

func kindFromString(s string) (component.CardKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "note", "":
		return component.CardNote, nil
	case "image":
		return component.CardImage, nil
	case "code":
		return component.CardCode, nil
	case "link":
		return component.CardLink, nil
	default:
		return 0, fmt.Errorf("unknown card kind %q", s)
	}
}
