package feedback

import (
	"context"
	"sync"
	"time"

	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
)

// Cue is a rendered pattern ready for playback.
type Cue struct {
	Pattern  Pattern
	WAV      []byte
	Duration time.Duration
}

// AudioSink plays a cue and returns when playback has finished.
type AudioSink interface {
	PlayCue(ctx context.Context, cue Cue) error
}

type Vibrator interface {
	Supported() bool
	Vibrate(ctx context.Context, pattern []time.Duration) error
}

// Player renders and plays feedback cues. Rendered cues are cached per category.
type Player struct {
	audio      AudioSink
	vibrator   Vibrator
	sampleRate int
	log        logger.Logger

	mu    sync.Mutex
	cache map[Category]Cue
}

func NewPlayer(audio AudioSink, vibrator Vibrator, sampleRate int, log logger.Logger) *Player {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Player{
		audio:      audio,
		vibrator:   vibrator,
		sampleRate: sampleRate,
		log:        log,
		cache:      make(map[Category]Cue),
	}
}

// Cue returns the rendered cue of c.
func (p *Player) Cue(c Category) Cue {
	pattern := PatternFor(c)

	p.mu.Lock()
	defer p.mu.Unlock()

	if cue, ok := p.cache[pattern.Category]; ok {
		return cue
	}

	cue := Cue{
		Pattern:  pattern,
		WAV:      EncodeWAV(Synthesize(pattern, p.sampleRate), p.sampleRate),
		Duration: pattern.Duration(),
	}
	p.cache[pattern.Category] = cue
	return cue
}

// Play starts the vibration without waiting for it and returns when the audio finishes.
// Playback errors are logged and not returned.
func (p *Player) Play(ctx context.Context, c Category) {
	ctx = wrap.WithAction(ctx, "play_feedback")
	cue := p.Cue(c)

	if p.vibrator != nil && p.vibrator.Supported() {
		vibCtx := context.WithoutCancel(ctx)
		go func() {
			if err := p.vibrator.Vibrate(vibCtx, cue.Pattern.VibrationPattern()); err != nil {
				p.log.Warn(vibCtx, "vibration failed", "category", string(cue.Pattern.Category), "error", err.Error())
			}
		}()
	}

	if p.audio == nil {
		return
	}
	if err := p.audio.PlayCue(ctx, cue); err != nil {
		p.log.Warn(ctx, "audio playback failed", "category", string(cue.Pattern.Category), "error", err.Error())
	}
}

// PlayForKind plays the cue mapped from a notification kind.
func (p *Player) PlayForKind(ctx context.Context, kind string) {
	p.Play(ctx, CategoryForKind(kind))
}
