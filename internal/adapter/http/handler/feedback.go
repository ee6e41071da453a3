package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/hpyride/hpyride/internal/service/feedback"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
)

// CueRenderer returns rendered feedback cues. *feedback.Player caches them per category.
type CueRenderer interface {
	Cue(c feedback.Category) feedback.Cue
}

type Feedback struct {
	cues CueRenderer
	l    logger.Logger
}

func NewFeedback(cues CueRenderer, l logger.Logger) *Feedback {
	return &Feedback{
		cues: cues,
		l:    l,
	}
}

// ForKind godoc
// @Summary      Feedback cue of a notification kind
// @Tags         Feedback
// @Produce      json
// @Param        kind  path      string  true  "notification kind"
// @Success      200   {object}  feedback.Pattern
// @Router       /feedback/kinds/{kind} [get]
func (h *Feedback) ForKind(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "feedback_for_kind")

	pattern := feedback.PatternFor(feedback.CategoryForKind(r.PathValue("kind")))

	if err := writeJSON(w, http.StatusOK, pattern, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Categories godoc
// @Summary      Every feedback cue
// @Tags         Feedback
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /feedback [get]
func (h *Feedback) Categories(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "feedback_categories")

	categories := feedback.Categories()
	patterns := make([]feedback.Pattern, 0, len(categories))
	for _, c := range categories {
		patterns = append(patterns, feedback.PatternFor(c))
	}

	if err := writeJSON(w, http.StatusOK, envelope{"patterns": patterns}, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Sound godoc
// @Summary      Synthesized cue of a category
// @Tags         Feedback
// @Produce      audio/wav
// @Param        file  path  string  true  "{category}.wav"
// @Success      200
// @Failure      404  {object}  map[string]string
// @Router       /feedback/{file} [get]
func (h *Feedback) Sound(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(r.PathValue("file"), ".wav")
	category := feedback.Category(name)
	if !ok || !category.Valid() {
		errorResponse(w, http.StatusNotFound, "unknown feedback category")
		return
	}

	cue := h.cues.Cue(category)

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(cue.WAV)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(cue.WAV); err != nil {
		h.l.Debug(r.Context(), "failed to write cue", "category", name, "error", err.Error())
	}
}
