package ingest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageMachine_HappyPath(t *testing.T) {
	m := newStageMachine()
	assert.Equal(t, StageValidating, m.Current())

	for _, next := range []Stage{
		StageStaging,
		StageTranscoding,
		StageProbing,
		StageUploading,
		StageRecording,
		StageCleaningUp,
		StageDone,
	} {
		require.NoError(t, m.TransitionTo(next))
	}
	assert.True(t, m.Current().IsTerminal())
}

func TestStageMachine_FailedFromEveryNonTerminalStage(t *testing.T) {
	for from, allowed := range validTransitions {
		if from.IsTerminal() {
			assert.Empty(t, allowed, "terminal stage %s", from)
			continue
		}
		assert.True(t, canTransition(from, StageFailed), "FAILED from %s", from)
	}
}

func TestStageMachine_NoSkipping(t *testing.T) {
	tests := []struct {
		from, to Stage
	}{
		{StageValidating, StageUploading},
		{StageStaging, StageProbing},
		{StageTranscoding, StageUploading},
		{StageProbing, StageRecording},
		{StageUploading, StageCleaningUp},
		{StageDone, StageFailed},
		{StageFailed, StageDone},
	}

	for _, tt := range tests {
		m := &stageMachine{current: tt.from}
		err := m.TransitionTo(tt.to)
		assert.True(t, errors.Is(err, ErrInvalidTransition), "%s -> %s", tt.from, tt.to)
		assert.Equal(t, tt.from, m.Current())
	}
}
