package otp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	"github.com/hpyride/hpyride/pkg/metrics"
	"github.com/hpyride/hpyride/pkg/validator"
)

var ErrInvalidURL = errors.New("verification url is required")

type Service struct {
	provider Provider
	limiter  Limiter
	resolver PhoneResolver
	users    UserRepo
	log      logger.Logger
}

func NewService(provider Provider, limiter Limiter, resolver PhoneResolver, users UserRepo, log logger.Logger) *Service {
	return &Service{
		provider: provider,
		limiter:  limiter,
		resolver: resolver,
		users:    users,
		log:      log,
	}
}

// PhoneLink is the result of a phone verification URL.
type PhoneLink struct {
	Phone  string    `json:"phone"`
	UserID uuid.UUID `json:"userId"`
}

func ValidatePhone(phone string) error {
	if !validator.Matches(phone, validator.E164RX) {
		return types.ErrInvalidPhone
	}
	return nil
}

func ValidateCode(code string) error {
	if !validator.Matches(code, validator.OTPRX) {
		return types.ErrInvalidOTP
	}
	return nil
}

// Send requests an SMS code for phone. The phone is validated before any network call.
func (s *Service) Send(ctx context.Context, phone string) (status string, err error) {
	ctx = wrap.WithAction(ctx, "send_otp")
	defer func() { metrics.RecordOTP("send", err) }()

	phone = strings.TrimSpace(phone)
	if err := ValidatePhone(phone); err != nil {
		return "", err
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, "otp:"+phone)
		switch {
		case err != nil:
			s.log.Warn(ctx, "otp rate limiter unavailable", "error", err.Error())
		case !allowed:
			return "", types.ErrTooManyRequests
		}
	}

	status, err = s.provider.SendCode(ctx, phone)
	if err != nil {
		s.log.Error(ctx, "failed to send otp", err)
		return "", wrap.Error(ctx, fmt.Errorf("%w: %w", types.ErrProviderFailed, err))
	}
	return status, nil
}

// Verify checks a code. Both phone and code are validated before any network call.
func (s *Service) Verify(ctx context.Context, phone, code string) (valid bool, err error) {
	ctx = wrap.WithAction(ctx, "verify_otp")
	defer func() { metrics.RecordOTP("verify", err) }()

	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)
	if err := ValidatePhone(phone); err != nil {
		return false, err
	}
	if err := ValidateCode(code); err != nil {
		return false, err
	}

	valid, err = s.provider.CheckCode(ctx, phone, code)
	if err != nil {
		s.log.Error(ctx, "failed to verify otp", err)
		return false, wrap.Error(ctx, fmt.Errorf("%w: %w", types.ErrProviderFailed, err))
	}
	return valid, nil
}

// VerifyPhoneEmail resolves a one-time verification URL and marks the phone verified on
// the account with the given id, or on the account that already has that phone.
func (s *Service) VerifyPhoneEmail(ctx context.Context, url string, userID uuid.UUID) (*PhoneLink, error) {
	ctx = wrap.WithAction(ctx, "verify_phone_email")

	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrInvalidURL
	}

	phone, err := s.resolver.Resolve(ctx, url)
	if err != nil {
		s.log.Error(ctx, "failed to resolve phone verification", err)
		return nil, wrap.Error(ctx, fmt.Errorf("%w: %w", types.ErrProviderFailed, err))
	}
	if err := ValidatePhone(phone); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: provider returned %q", err, phone))
	}

	if userID == uuid.Nil {
		user, err := s.users.FindByPhone(ctx, phone)
		if err != nil {
			return nil, wrap.Error(ctx, err)
		}
		userID = user.ID
	} else if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	ctx = wrap.WithUserID(ctx, userID.String())
	if err := s.users.SetPhoneVerified(ctx, userID, phone); err != nil {
		s.log.Error(ctx, "failed to link phone", err)
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "phone linked")
	return &PhoneLink{Phone: phone, UserID: userID}, nil
}
