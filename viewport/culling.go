package viewport

import (
	"sort"

	"github.com/milk9111/pinboard/geom"
)

// Complexity grades how expensive an entity is to draw at full detail.
type Complexity int

const (
	ComplexityLow Complexity = iota
	ComplexityMedium
	ComplexityHigh
)

// Entity is the culler's view of one drawable thing on the canvas.
type Entity struct {
	ID         uint64
	Bounds     geom.Rect
	Priority   float64
	Complexity Complexity
}

// CullingConfig tunes the visibility pass.
type CullingConfig struct {
	// BufferZone expands the visible window by a world-unit margin in
	// every direction so entities entering the screen are already live.
	BufferZone float64 `yaml:"buffer_zone"`
	// MaxEntities caps the result; zero or negative means unlimited.
	MaxEntities int `yaml:"max_entities"`
	// PriorityThreshold marks entries below it as candidates for
	// simplified rendering. It never excludes anything by itself.
	PriorityThreshold       float64 `yaml:"priority_threshold"`
	EnableLevelOfDetail     bool    `yaml:"enable_level_of_detail"`
	SimplificationThreshold float64 `yaml:"simplification_threshold"`
}

func DefaultCullingConfig() CullingConfig {
	return CullingConfig{
		BufferZone:              400,
		MaxEntities:             300,
		PriorityThreshold:       0,
		EnableLevelOfDetail:     true,
		SimplificationThreshold: 0.5,
	}
}

// Result is one culling pass over the entity set.
type Result struct {
	// Entries holds the surviving entities. When the max-entity cap
	// bites they are ordered by descending priority; otherwise input
	// order is preserved.
	Entries []Entity
	// Bounds is the buffered world window the pass tested against.
	Bounds geom.Rect

	TotalEntities   int
	VisibleEntities int
	// Truncated counts intersecting entities dropped by MaxEntities.
	Truncated int
	// BelowThreshold counts surviving entries under PriorityThreshold.
	BelowThreshold int

	LevelOfDetail Tier
}

// Culler selects the subset of entities worth rendering for a viewport.
type Culler struct {
	cfg CullingConfig
	lod LODSelector
}

func NewCuller(cfg CullingConfig) *Culler {
	if cfg.BufferZone < 0 {
		cfg.BufferZone = 0
	}
	return &Culler{cfg: cfg, lod: NewLODSelector(cfg.EnableLevelOfDetail)}
}

func (c *Culler) Config() CullingConfig { return c.cfg }

// Cull filters entities down to those intersecting the buffered visible
// window, truncating to the configured cap by priority when necessary.
// Entities with invalid bounds (NaN, infinite, inverted, or zero-area)
// are excluded without error. The input slice is never mutated.
func (c *Culler) Cull(entities []Entity, vp Viewport, screenW, screenH float64) Result {
	window := VisibleWorldRect(vp, screenW, screenH).Expand(c.cfg.BufferZone)
	res := Result{
		Bounds:        window,
		TotalEntities: len(entities),
		LevelOfDetail: c.lod.Select(vp.Zoom),
	}

	kept := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if !e.Bounds.Valid() {
			continue
		}
		if e.Bounds.Intersects(window) {
			kept = append(kept, e)
		}
	}

	if max := c.cfg.MaxEntities; max > 0 && len(kept) > max {
		center := window.Center()
		// Highest priority first; ties go to the entity nearest the
		// window center so truncation feels spatially fair.
		sort.SliceStable(kept, func(i, j int) bool {
			if kept[i].Priority != kept[j].Priority {
				return kept[i].Priority > kept[j].Priority
			}
			di := kept[i].Bounds.Center().Sub(center).LenSq()
			dj := kept[j].Bounds.Center().Sub(center).LenSq()
			return di < dj
		})
		res.Truncated = len(kept) - max
		kept = kept[:max]
	}

	for _, e := range kept {
		if e.Priority < c.cfg.PriorityThreshold {
			res.BelowThreshold++
		}
	}

	res.Entries = kept
	res.VisibleEntities = len(kept)
	return res
}
