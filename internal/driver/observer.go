package driver

// Stage is the step a file has reached.
type Stage uint8

const (
	StageQueued Stage = iota
	StageParse
	StageExpand
	StageMaterialize
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageQueued:
		return "queued"
	case StageParse:
		return "parse"
	case StageExpand:
		return "expand"
	case StageMaterialize:
		return "materialize"
	case StageDone:
		return "done"
	}
	return "unknown"
}

// Event reports progress of one file. Changed, Errors and Cached are set on
// StageDone only.
type Event struct {
	Path    string
	Stage   Stage
	Changed bool
	Errors  int
	Cached  bool
}

// Observer receives events from worker goroutines; it must be safe for
// concurrent use.
type Observer func(Event)
