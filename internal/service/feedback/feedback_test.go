package feedback

import (
	"context"
	"encoding/binary"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/hpyride/hpyride/pkg/logger"
)

func TestCategoryForKind(t *testing.T) {
	tests := []struct {
		kind string
		want Category
	}{
		{"driver_arrived", CategoryUrgent},
		{"sos", CategoryUrgent},
		{"booking_confirmed", CategorySuccess},
		{"trip_completed", CategorySuccess},
		{"booking_cancelled", CategoryError},
		{"trip_started", CategoryWarning},
		{"chat_message", CategoryMessage},
		{"promotional", CategoryMessage},
		{"something_new", CategoryDefault},
		{"", CategoryDefault},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			if got := CategoryForKind(tt.kind); got != tt.want {
				t.Errorf("CategoryForKind(%q) = %q, want %q", tt.kind, got, tt.want)
			}
		})
	}
}

func TestPatternFor(t *testing.T) {
	urgent := PatternFor(CategoryUrgent)
	if len(urgent.Tones) != 3 {
		t.Fatalf("urgent tones = %d, want 3", len(urgent.Tones))
	}
	for _, tone := range urgent.Tones {
		if tone.FrequencyHz != 1000 {
			t.Errorf("urgent tone at %d Hz, want 1000", tone.FrequencyHz)
		}
	}

	success := PatternFor(CategorySuccess)
	for i := 1; i < len(success.Tones); i++ {
		if success.Tones[i].FrequencyHz <= success.Tones[i-1].FrequencyHz {
			t.Errorf("success chime is not rising: %+v", success.Tones)
		}
	}

	if got := PatternFor("bogus").Category; got != CategoryDefault {
		t.Errorf("unknown category resolved to %q", got)
	}

	for _, c := range Categories() {
		if !c.Valid() {
			t.Errorf("category %q not in table", c)
		}
	}
}

func TestPatternFor_ReturnsCopy(t *testing.T) {
	p := PatternFor(CategoryUrgent)
	p.Tones[0].FrequencyHz = 1
	p.Vibration[0] = 9999

	again := PatternFor(CategoryUrgent)
	if again.Tones[0].FrequencyHz != 1000 || again.Vibration[0] != 100 {
		t.Fatalf("caller mutation leaked into the cue table: %+v", again)
	}
}

func TestPatternDuration(t *testing.T) {
	// 3*120 + 2*80
	if got := PatternFor(CategoryUrgent).Duration(); got != 520*time.Millisecond {
		t.Errorf("urgent duration = %v", got)
	}
	if got := PatternFor(CategoryDefault).Duration(); got != 150*time.Millisecond {
		t.Errorf("default duration = %v", got)
	}
}

func TestSynthesize(t *testing.T) {
	const rate = 8000
	p := PatternFor(CategoryWarning)
	samples := Synthesize(p, rate)

	want := (250 + 100 + 250) * rate / 1000
	if len(samples) != want {
		t.Fatalf("len = %d, want %d", len(samples), want)
	}
	if samples[0] != 0 {
		t.Errorf("attack does not start at silence: %d", samples[0])
	}

	gapStart := 250 * rate / 1000
	for i := gapStart; i < gapStart+100*rate/1000; i++ {
		if samples[i] != 0 {
			t.Fatalf("gap sample %d = %d", i, samples[i])
		}
	}

	peak := int16(0)
	for _, s := range samples {
		peak = max(peak, s)
	}
	if peak == 0 {
		t.Fatal("no signal")
	}
}

func TestEncodeWAV(t *testing.T) {
	samples := []int16{0, 100, -100, 0}
	wav := EncodeWAV(samples, 16000)

	if len(wav) != 44+len(samples)*2 {
		t.Fatalf("len = %d", len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Fatalf("bad header: %q", wav[:44])
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 16000 {
		t.Errorf("sample rate = %d", rate)
	}
	if got := int16(binary.LittleEndian.Uint16(wav[46:48])); got != 100 {
		t.Errorf("second sample = %d", got)
	}
}

type slowSink struct {
	mu     sync.Mutex
	played []Category
	delay  time.Duration
}

func (s *slowSink) PlayCue(ctx context.Context, cue Cue) error {
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.played = append(s.played, cue.Pattern.Category)
	return nil
}

type blockingVibrator struct {
	supported bool
	started   chan []time.Duration
	release   chan struct{}
}

func (v *blockingVibrator) Supported() bool { return v.supported }

func (v *blockingVibrator) Vibrate(ctx context.Context, pattern []time.Duration) error {
	v.started <- pattern
	<-v.release
	return nil
}

func TestPlayer_PlayDoesNotWaitForVibration(t *testing.T) {
	sink := &slowSink{delay: 5 * time.Millisecond}
	vib := &blockingVibrator{
		supported: true,
		started:   make(chan []time.Duration, 1),
		release:   make(chan struct{}),
	}
	defer close(vib.release)

	p := NewPlayer(sink, vib, 8000, logger.Discard())
	p.PlayForKind(context.Background(), "driver_arrived")

	if !slices.Equal(sink.played, []Category{CategoryUrgent}) {
		t.Fatalf("played = %v", sink.played)
	}

	select {
	case pattern := <-vib.started:
		if len(pattern) != 5 || pattern[0] != 100*time.Millisecond {
			t.Errorf("vibration pattern = %v", pattern)
		}
	case <-time.After(time.Second):
		t.Fatal("vibration never started")
	}
}

func TestPlayer_SkipsUnsupportedVibrator(t *testing.T) {
	vib := &blockingVibrator{started: make(chan []time.Duration, 1)}
	p := NewPlayer(nil, vib, 8000, logger.Discard())
	p.Play(context.Background(), CategorySuccess)

	select {
	case <-vib.started:
		t.Fatal("vibrated on an unsupported device")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestPlayer_CachesCue(t *testing.T) {
	p := NewPlayer(nil, nil, 8000, logger.Discard())
	a := p.Cue(CategoryMessage)
	b := p.Cue(CategoryMessage)
	if &a.WAV[0] != &b.WAV[0] {
		t.Error("cue rendered twice")
	}
	if p.Cue("bogus").Pattern.Category != CategoryDefault {
		t.Error("unknown category did not fall back to default")
	}
}
