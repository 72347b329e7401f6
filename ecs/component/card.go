package component

import "github.com/google/uuid"

// CardKind discriminates what a card shows and how it renders.
type CardKind int

const (
	CardNote CardKind = iota
	CardImage
	CardCode
	CardLink
)

func (k CardKind) String() string {
	switch k {
	case CardNote:
		return "note"
	case CardImage:
		return "image"
	case CardCode:
		return "code"
	case CardLink:
		return "link"
	default:
		return "unknown"
	}
}

// Card is the persistent identity and content of a board card. Body
// holds the note text, the script source for code cards, or the URL for
// link cards; ImageKey references the blob row for image cards.
// Revision bumps on every content edit so downstream caches can compare
// cheaply instead of diffing text.
type Card struct {
	ID       uuid.UUID
	Kind     CardKind
	Title    string
	Body     string
	Color    uint32 // 0xRRGGBBAA
	ImageKey string
	Revision uint64
}

// Touch marks a content change.
func (c *Card) Touch() {
	c.Revision++
}

var CardComponent = NewComponent[Card]()
