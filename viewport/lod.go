package viewport

// Tier is the level of detail rendering should target at a given zoom.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Zoom thresholds between detail tiers. Below lowBelow everything is a
// colored box; below mediumBelow text renders without decorations.
const (
	lowBelow    = 0.5
	mediumBelow = 1.5
)

// LODSelector maps a zoom factor to a detail tier. The mapping is
// monotonic: zooming in never lowers the tier. A disabled selector
// always reports TierHigh.
type LODSelector struct {
	enabled bool
}

func NewLODSelector(enabled bool) LODSelector {
	return LODSelector{enabled: enabled}
}

func (s LODSelector) Select(zoom float64) Tier {
	if !s.enabled {
		return TierHigh
	}
	switch {
	case zoom < lowBelow:
		return TierLow
	case zoom < mediumBelow:
		return TierMedium
	default:
		return TierHigh
	}
}
