package wshandler

import (
	"context"
	"time"

	"github.com/hpyride/hpyride/internal/adapter/http/ws/dto"
	"github.com/hpyride/hpyride/internal/service/feedback"
	ws "github.com/hpyride/hpyride/pkg/wsHub"
)

// cueSink plays a cue on a rider app by sending its descriptor; the app fetches the WAV
// from url. PlayCue returns once the cue would have finished playing.
type cueSink struct {
	conn    *ws.Conn
	baseURL string
}

func (s *cueSink) PlayCue(ctx context.Context, cue feedback.Cue) error {
	category := string(cue.Pattern.Category)
	err := s.conn.Send(dto.ServerMessage{
		Type: dto.TypeFeedback,
		Payload: dto.FeedbackCue{
			Category:   category,
			URL:        s.baseURL + "/feedback/" + category + ".wav",
			DurationMS: cue.Duration.Milliseconds(),
		},
	})
	if err != nil {
		return err
	}

	t := time.NewTimer(cue.Duration)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.conn.Done():
	case <-t.C:
	}
	return nil
}

// connVibrator forwards vibration patterns to apps that declared vibration support.
type connVibrator struct {
	conn      *ws.Conn
	supported bool
}

func (v *connVibrator) Supported() bool {
	return v.supported
}

func (v *connVibrator) Vibrate(_ context.Context, pattern []time.Duration) error {
	ms := make([]int64, len(pattern))
	for i, d := range pattern {
		ms[i] = d.Milliseconds()
	}
	return v.conn.Send(dto.ServerMessage{
		Type:    dto.TypeVibrate,
		Payload: dto.Vibration{PatternMS: ms},
	})
}
