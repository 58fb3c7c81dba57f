package audio

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ErrUnsupported is reported when speech synthesis is disabled
var ErrUnsupported = errors.New("speech synthesis not available")

// Synthesizer turns text into a playable audio file
type Synthesizer interface {
	GenerateAudioFile(ctx context.Context, text, lang string) (string, error)
}

// EventKind is the lifecycle stage of one utterance
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventEnded     EventKind = "ended"
	EventCancelled EventKind = "cancelled"
	EventError     EventKind = "error"
)

// Event reports progress of an utterance on a channel
type Event struct {
	Kind    EventKind
	Channel string
	Text    string
	Lang    string
	Path    string
	Err     error
}

type utterance struct {
	cancel context.CancelFunc
}

// Speaker runs speech synthesis in the background, one utterance per
// channel. Starting a new utterance on a channel cancels the previous one.
// Failures are reported as events and never returned to the caller.
type Speaker struct {
	synth    Synthesizer
	timeout  time.Duration
	listener func(Event)
	logger   *slog.Logger

	mu     sync.Mutex
	active map[string]*utterance
	wg     sync.WaitGroup
}

// SpeakerOption configures a Speaker
type SpeakerOption func(*Speaker)

// WithListener receives every utterance event
func WithListener(fn func(Event)) SpeakerOption {
	return func(s *Speaker) { s.listener = fn }
}

// WithTimeout bounds a single synthesis
func WithTimeout(d time.Duration) SpeakerOption {
	return func(s *Speaker) { s.timeout = d }
}

// WithSpeakerLogger sets the logger for synthesis failures
func WithSpeakerLogger(l *slog.Logger) SpeakerOption {
	return func(s *Speaker) { s.logger = l }
}

// NewSpeaker creates a speaker. A nil synth yields a speaker that is not
// Supported and reports every Speak as an error event.
func NewSpeaker(synth Synthesizer, opts ...SpeakerOption) *Speaker {
	s := &Speaker{
		synth:   synth,
		timeout: ttsRequestTimeout,
		logger:  slog.Default(),
		active:  make(map[string]*utterance),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Supported reports whether speech can be produced at all
func (s *Speaker) Supported() bool {
	return s.synth != nil
}

// Speak starts synthesising text in lang on channel and returns at once.
// Blank text is ignored.
func (s *Speaker) Speak(channel, text, lang string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if s.synth == nil {
		s.emit(Event{Kind: EventError, Channel: channel, Text: text, Lang: lang, Err: ErrUnsupported})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	u := &utterance{cancel: cancel}

	s.mu.Lock()
	previous := s.active[channel]
	s.active[channel] = u
	s.wg.Add(1)
	s.mu.Unlock()

	if previous != nil {
		previous.cancel()
	}

	go func() {
		defer s.wg.Done()
		defer cancel()

		s.emit(Event{Kind: EventStarted, Channel: channel, Text: text, Lang: lang})
		path, err := s.synth.GenerateAudioFile(ctx, text, lang)

		s.mu.Lock()
		if s.active[channel] == u {
			delete(s.active, channel)
		}
		s.mu.Unlock()

		switch {
		case errors.Is(ctx.Err(), context.Canceled):
			s.emit(Event{Kind: EventCancelled, Channel: channel, Text: text, Lang: lang})
		case err != nil:
			s.logger.Warn("speech synthesis failed", "channel", channel, "lang", lang, "error", err)
			s.emit(Event{Kind: EventError, Channel: channel, Text: text, Lang: lang, Err: err})
		default:
			s.emit(Event{Kind: EventEnded, Channel: channel, Text: text, Lang: lang, Path: path})
		}
	}()
}

// Cancel aborts the utterance in flight on channel, if any
func (s *Speaker) Cancel(channel string) {
	s.mu.Lock()
	u := s.active[channel]
	delete(s.active, channel)
	s.mu.Unlock()

	if u != nil {
		u.cancel()
	}
}

// Speaking reports whether an utterance is in flight on channel
func (s *Speaker) Speaking(channel string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[channel]
	return ok
}

// Close cancels every utterance and waits for the workers to exit
func (s *Speaker) Close() {
	s.mu.Lock()
	for channel, u := range s.active {
		u.cancel()
		delete(s.active, channel)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Wait blocks until no utterance is in flight
func (s *Speaker) Wait() {
	s.wg.Wait()
}

func (s *Speaker) emit(e Event) {
	if s.listener != nil {
		s.listener(e)
	}
}
