package session

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mahakjain123456/feynman-mirror/internal/live"
	"github.com/mahakjain123456/feynman-mirror/internal/playback"
)

// playbackSink is the slice of the playback scheduler the router drives.
type playbackSink interface {
	Enqueue(samples []float32) (time.Duration, error)
	StopActive()
}

// Events are the router's outbound notifications to the presentation layer.
type Events struct {
	OnClarity   func(state ClarityState)
	OnUtterance func(u Utterance)
}

// Router classifies inbound frames and drives playback, transcripts and
// clarity feedback. One frame may carry several of these at once; each is
// handled independently.
type Router struct {
	logger     *zap.Logger
	decoder    *playback.Decoder
	sink       playbackSink
	transcript *TranscriptAccumulator
	ack        func(id, name string)
	events     Events
}

// NewRouter creates a Router. The ack function must deliver exactly one
// acknowledgement per call; the router invokes it once per tool invocation.
func NewRouter(
	logger *zap.Logger,
	decoder *playback.Decoder,
	sink playbackSink,
	transcript *TranscriptAccumulator,
	ack func(id, name string),
	events Events,
) *Router {
	return &Router{
		logger:     logger.Named("router"),
		decoder:    decoder,
		sink:       sink,
		transcript: transcript,
		ack:        ack,
		events:     events,
	}
}

// Route processes one inbound frame: tool calls first, then audio, then
// transcription fragments, then the turn boundary.
func (r *Router) Route(msg *live.ServerMessage) {
	if msg == nil {
		return
	}

	if msg.ToolCall != nil {
		r.routeToolCalls(msg.ToolCall.FunctionCalls)
	}

	if msg.ServerContent != nil {
		r.routeContent(msg.ServerContent)
	}
}

// routeToolCalls handles the declared tool set. Every invocation of a known
// tool is acknowledged exactly once, even when its arguments fail to decode;
// the endpoint must never be left waiting on a response.
func (r *Router) routeToolCalls(calls []live.FunctionCall) {
	for _, fc := range calls {
		switch fc.Name {
		case ToolUpdateClarity:
			inv, err := parseInvocation(fc)
			if err != nil {
				r.logger.Warn("Ignoring malformed tool invocation",
					zap.String("id", fc.ID), zap.Error(err))
			} else if r.events.OnClarity != nil {
				r.events.OnClarity(ClarityState{
					Score:     inv.Score,
					Reasoning: inv.Reasoning,
					Language:  inv.Language,
				})
			}
			r.ack(fc.ID, fc.Name)
		default:
			r.logger.Warn("Unknown tool invocation",
				zap.String("id", fc.ID), zap.String("name", fc.Name))
		}
	}
}

func (r *Router) routeContent(sc *live.ServerContent) {
	if sc.Interrupted {
		r.logger.Debug("Model output interrupted, stopping active playback")
		r.sink.StopActive()
	}

	for _, payload := range sc.AudioPayloads() {
		samples, err := r.decoder.Decode(payload)
		if err != nil {
			// A bad chunk is dropped; the session keeps going.
			r.logger.Warn("Dropping undecodable audio chunk", zap.Error(err))

			continue
		}

		if _, err := r.sink.Enqueue(samples); err != nil {
			if errors.Is(err, playback.ErrSchedulerClosed) {
				// Decode finished after teardown; nothing to play into.
				return
			}
			r.logger.Warn("Failed to schedule playback", zap.Error(err))
		}
	}

	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		r.transcript.Append(DirectionUser, sc.InputTranscription.Text)
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		r.transcript.Append(DirectionModel, sc.OutputTranscription.Text)
	}

	if sc.TurnComplete {
		for _, u := range r.transcript.Flush() {
			if r.events.OnUtterance != nil {
				r.events.OnUtterance(u)
			}
		}
	}
}
