package component

// ScriptResult caches the last evaluation of a code card. RunRevision
// records the card revision the output belongs to; the script system
// re-evaluates only when the card has moved past it.
type ScriptResult struct {
	Output      string
	Err         string
	RunRevision uint64
	Running     bool
}

var ScriptResultComponent = NewComponent[ScriptResult]()
