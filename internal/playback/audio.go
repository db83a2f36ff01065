package playback

import "github.com/storyloom/storyloom/internal/models"

// AudioMixer tracks which cues are playing. At most one background channel
// is active at a time; effect cues start concurrently and are tracked only
// for cleanup.
type AudioMixer struct {
	background *models.AudioCue
	effects    []models.AudioCue
}

func NewAudioMixer() *AudioMixer {
	return &AudioMixer{}
}

// EnterNode starts the node's cues. A background cue stops and replaces any
// currently playing background audio; a node without one leaves the current
// background playing.
func (m *AudioMixer) EnterNode(cues []models.AudioCue) {
	for _, cue := range cues {
		switch cue.Channel {
		case models.AudioChannelBackground:
			replacement := cue
			m.background = &replacement
		case models.AudioChannelEffect:
			m.effects = append(m.effects, cue)
		}
	}
}

// Background returns the active background cue, if any.
func (m *AudioMixer) Background() *models.AudioCue {
	if m.background == nil {
		return nil
	}
	cue := *m.background
	return &cue
}

// Effects returns every effect cue started since the last cleanup.
func (m *AudioMixer) Effects() []models.AudioCue {
	return append([]models.AudioCue(nil), m.effects...)
}

// StopAll releases everything, e.g. when playback ends.
func (m *AudioMixer) StopAll() {
	m.background = nil
	m.effects = nil
}
