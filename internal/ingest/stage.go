package ingest

import (
	"errors"
	"fmt"
)

// Stage is a step of the video upload pipeline.
type Stage string

const (
	StageValidating  Stage = "VALIDATING"
	StageStaging     Stage = "STAGING"
	StageTranscoding Stage = "TRANSCODING"
	StageProbing     Stage = "PROBING"
	StageUploading   Stage = "UPLOADING"
	StageRecording   Stage = "RECORDING"
	StageCleaningUp  Stage = "CLEANING_UP"
	StageDone        Stage = "DONE"
	StageFailed      Stage = "FAILED"
)

// ErrInvalidTransition is returned when a stage is entered out of order.
var ErrInvalidTransition = errors.New("invalid stage transition")

// validTransitions defines which stage transitions are allowed.
// The pipeline is strictly sequential; FAILED is reachable from every
// non-terminal stage.
var validTransitions = map[Stage][]Stage{
	StageValidating:  {StageStaging, StageFailed},
	StageStaging:     {StageTranscoding, StageFailed},
	StageTranscoding: {StageProbing, StageFailed},
	StageProbing:     {StageUploading, StageFailed},
	StageUploading:   {StageRecording, StageFailed},
	StageRecording:   {StageCleaningUp, StageFailed},
	StageCleaningUp:  {StageDone, StageFailed},
	StageDone:        {},
	StageFailed:      {},
}

// canTransition checks if a transition from one stage to another is valid.
func canTransition(from, to Stage) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s Stage) IsTerminal() bool {
	return s == StageDone || s == StageFailed
}

// stageMachine tracks the current stage of one pipeline run.
type stageMachine struct {
	current Stage
}

func newStageMachine() *stageMachine {
	return &stageMachine{current: StageValidating}
}

func (m *stageMachine) Current() Stage {
	return m.current
}

// TransitionTo moves to next or returns ErrInvalidTransition.
func (m *stageMachine) TransitionTo(next Stage) error {
	if !canTransition(m.current, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.current, next)
	}
	m.current = next
	return nil
}
