package dto

import (
	"strings"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/pkg/validator"
)

type ChatMessageRequest struct {
	Text string `json:"text"`
}

func (r *ChatMessageRequest) Validate(v *validator.Validator) {
	v.Check(strings.TrimSpace(r.Text) != "", "text", "must be provided")
	v.Check(validator.MaxChars(r.Text, 1000), "text", "must not be more than 1000 characters")
}

// ListingMessageRequest is a car listing message. RecipientID is required when the
// listing owner writes.
type ListingMessageRequest struct {
	RecipientID string `json:"recipient_id,omitempty"`
	Text        string `json:"text"`
}

func (r *ListingMessageRequest) Validate(v *validator.Validator) {
	if r.RecipientID != "" {
		_, err := uuid.Parse(r.RecipientID)
		v.Check(err == nil, "recipient_id", "must be a valid uuid")
	}
	v.Check(strings.TrimSpace(r.Text) != "", "text", "must be provided")
	v.Check(validator.MaxChars(r.Text, 1000), "text", "must not be more than 1000 characters")
}

func (r *ListingMessageRequest) Recipient() uuid.UUID {
	id, err := uuid.Parse(r.RecipientID)
	if err != nil {
		return uuid.Nil
	}
	return id
}
