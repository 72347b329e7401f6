package component

// StreamedTag marks entities materialized by region streaming, as
// opposed to cards created in this session. Only streamed entities are
// eligible for unload when they leave the live region.
type StreamedTag struct{}

var StreamedTagComponent = NewComponent[StreamedTag]()

// DirtyTag marks entities with unsaved edits for the autosave sweep.
type DirtyTag struct{}

var DirtyTagComponent = NewComponent[DirtyTag]()
