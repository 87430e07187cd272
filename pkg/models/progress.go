package models

// CleanPhase is a step of the per-project cleaning state machine.
// Phases only move forward; Cleaning may repeat with a growing FilesProcessed.
type CleanPhase int

const (
	PhaseStarting CleanPhase = iota
	PhaseAnalyzing
	PhaseCleaning
	PhaseFinalizing
	PhaseComplete
)

func (p CleanPhase) String() string {
	switch p {
	case PhaseStarting:
		return "starting"
	case PhaseAnalyzing:
		return "analyzing"
	case PhaseCleaning:
		return "cleaning"
	case PhaseFinalizing:
		return "finalizing"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// CleanProgress is a transient progress event emitted while a project is cleaned
type CleanProgress struct {
	ProjectName    string
	CurrentFile    string // empty when not applicable
	FilesProcessed int
	TotalFiles     int // 0 when unknown
	Phase          CleanPhase
}

// ProgressFunc receives progress events synchronously from the goroutine that
// produced them. Implementations must not block.
type ProgressFunc func(CleanProgress)
