package feedback

import (
	"slices"
	"time"
)

type Category string

const (
	CategoryDefault Category = "default"
	CategorySuccess Category = "success"
	CategoryUrgent  Category = "urgent"
	CategoryWarning Category = "warning"
	CategoryError   Category = "error"
	CategoryMessage Category = "message"
)

func (c Category) Valid() bool {
	_, ok := patterns[c]
	return ok
}

// Tone is one sine beep.
type Tone struct {
	FrequencyHz int `json:"frequency_hz"`
	DurationMs  int `json:"duration_ms"`
}

// Pattern is the fixed audio and vibration cue of a category.
type Pattern struct {
	Category  Category `json:"category"`
	Tones     []Tone   `json:"tones"`
	GapMs     int      `json:"gap_ms"`
	Vibration []int    `json:"vibration"`
}

var patterns = map[Category]Pattern{
	CategoryUrgent: {
		Category:  CategoryUrgent,
		Tones:     []Tone{{1000, 120}, {1000, 120}, {1000, 120}},
		GapMs:     80,
		Vibration: []int{100, 50, 100, 50, 100},
	},
	CategorySuccess: {
		Category:  CategorySuccess,
		Tones:     []Tone{{523, 120}, {659, 120}, {784, 200}},
		GapMs:     30,
		Vibration: []int{50, 30, 50},
	},
	CategoryWarning: {
		Category:  CategoryWarning,
		Tones:     []Tone{{440, 250}, {330, 250}},
		GapMs:     100,
		Vibration: []int{200, 100, 200},
	},
	CategoryError: {
		Category:  CategoryError,
		Tones:     []Tone{{300, 200}, {200, 350}},
		GapMs:     60,
		Vibration: []int{300, 100, 300},
	},
	CategoryMessage: {
		Category:  CategoryMessage,
		Tones:     []Tone{{880, 90}, {1175, 120}},
		GapMs:     40,
		Vibration: []int{80},
	},
	CategoryDefault: {
		Category:  CategoryDefault,
		Tones:     []Tone{{660, 150}},
		Vibration: []int{100},
	},
}

var kindCategories = map[string]Category{
	"driver_arrived":   CategoryUrgent,
	"ride_request":     CategoryUrgent,
	"new_ride_request": CategoryUrgent,
	"emergency":        CategoryUrgent,
	"sos":              CategoryUrgent,

	"ride_accepted":         CategorySuccess,
	"booking_confirmed":     CategorySuccess,
	"trip_completed":        CategorySuccess,
	"payment_success":       CategorySuccess,
	"verification_approved": CategorySuccess,

	"booking_cancelled":     CategoryError,
	"ride_cancelled":        CategoryError,
	"verification_rejected": CategoryError,
	"payment_failed":        CategoryError,

	"trip_started":   CategoryWarning,
	"ride_reminder":  CategoryWarning,
	"driver_delayed": CategoryWarning,

	"chat_message": CategoryMessage,
	"new_message":  CategoryMessage,
	"promotional":  CategoryMessage,
}

// PatternFor returns a copy of the cue of c. Unknown categories get the default cue.
func PatternFor(c Category) Pattern {
	p, ok := patterns[c]
	if !ok {
		p = patterns[CategoryDefault]
	}
	p.Tones = slices.Clone(p.Tones)
	p.Vibration = slices.Clone(p.Vibration)
	return p
}

// CategoryForKind maps a notification kind onto a feedback category.
func CategoryForKind(kind string) Category {
	if c, ok := kindCategories[kind]; ok {
		return c
	}
	return CategoryDefault
}

func Categories() []Category {
	return []Category{
		CategoryDefault,
		CategorySuccess,
		CategoryUrgent,
		CategoryWarning,
		CategoryError,
		CategoryMessage,
	}
}

// Duration is the audible length of p including gaps.
func (p Pattern) Duration() time.Duration {
	total := 0
	for i, t := range p.Tones {
		if i > 0 {
			total += p.GapMs
		}
		total += t.DurationMs
	}
	return time.Duration(total) * time.Millisecond
}

// VibrationPattern returns the alternating on/off durations.
func (p Pattern) VibrationPattern() []time.Duration {
	out := make([]time.Duration, len(p.Vibration))
	for i, ms := range p.Vibration {
		out[i] = time.Duration(ms) * time.Millisecond
	}
	return out
}
