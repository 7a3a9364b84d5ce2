package session

import (
	"strings"
	"sync"
)

// Direction tags a transcription by speaker.
type Direction int

const (
	DirectionUser Direction = iota
	DirectionModel
)

func (d Direction) String() string {
	if d == DirectionUser {
		return "user"
	}

	return "model"
}

// Utterance is one whole flushed transcription, emitted on a turn boundary.
type Utterance struct {
	Direction Direction
	Text      string
}

// TranscriptAccumulator collects transcription fragments per direction and
// flushes them as whole utterances on turn boundaries. It also retains every
// flushed utterance so the full session transcript is available afterwards.
type TranscriptAccumulator struct {
	mu    sync.Mutex
	user  strings.Builder
	model strings.Builder
	log   []Utterance
}

// NewTranscriptAccumulator creates an empty accumulator.
func NewTranscriptAccumulator() *TranscriptAccumulator {
	return &TranscriptAccumulator{}
}

// Append adds one fragment to the given direction's running text. Fragments
// concatenate in arrival order with no separator.
func (t *TranscriptAccumulator) Append(dir Direction, fragment string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if dir == DirectionUser {
		t.user.WriteString(fragment)
	} else {
		t.model.WriteString(fragment)
	}
}

// Flush emits each non-empty accumulator as one utterance, user first, and
// resets both. Empty accumulators produce nothing, so flushing twice in a row
// yields no second batch.
func (t *TranscriptAccumulator) Flush() []Utterance {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Utterance
	if t.user.Len() > 0 {
		out = append(out, Utterance{Direction: DirectionUser, Text: t.user.String()})
		t.user.Reset()
	}
	if t.model.Len() > 0 {
		out = append(out, Utterance{Direction: DirectionModel, Text: t.model.String()})
		t.model.Reset()
	}

	t.log = append(t.log, out...)

	return out
}

// Text renders the full flushed transcript, one line per utterance. Fragments
// still pending in the accumulators are not included.
func (t *TranscriptAccumulator) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	for _, u := range t.log {
		if u.Direction == DirectionUser {
			b.WriteString("Student: ")
		} else {
			b.WriteString("Tutor: ")
		}
		b.WriteString(u.Text)
		b.WriteString("\n")
	}

	return b.String()
}
