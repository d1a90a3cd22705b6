package capture

// State is where a tab sits in the capture lifecycle.
type State int

const (
	StateIdle State = iota
	StateClassified
	StateExtracted
	StateSaved
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateClassified:
		return "classified"
	case StateExtracted:
		return "extracted"
	case StateSaved:
		return "saved"
	case StateDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}
