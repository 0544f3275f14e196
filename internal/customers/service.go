package customers

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servistore/servistore-backend/internal/sms"
	"github.com/servistore/servistore-backend/pkg/config"
	"github.com/servistore/servistore-backend/pkg/db/models"
	pkgerrors "github.com/servistore/servistore-backend/pkg/errors"
	"github.com/servistore/servistore-backend/pkg/logger"
	"github.com/servistore/servistore-backend/pkg/redis"
)

const (
	verifyDetailCodeSent = "Verification code sent to your new phone. Please verify it to save the number."
	verifyDetailSaved    = "Phone number verified and saved successfully."
	verifyFailedMessage  = "Invalid or expired code, or no pending phone number."
	smsCodeTemplate      = "Your verification code is: %s"

	phoneChangeScope = "phone_change"
)

// verificationStore is the Redis surface the phone flow needs.
type verificationStore interface {
	StoreVerification(ctx context.Context, customerID string, pending redis.PendingVerification, ttl time.Duration) error
	GetVerification(ctx context.Context, customerID string) (redis.PendingVerification, error)
	ClearVerification(ctx context.Context, customerID string) error
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Service exposes the customer profile and phone verification flow.
type Service interface {
	Me(ctx context.Context, customerID uuid.UUID) (*CustomerResponse, error)
	UpdateMe(ctx context.Context, customerID uuid.UUID, input UpdateMeInput) (*UpdateMeResponse, error)
	VerifyPhone(ctx context.Context, customerID uuid.UUID, input VerifyPhoneInput) (*VerifyPhoneResponse, error)
}

type service struct {
	repo         Repository
	verification verificationStore
	smsQueue     sms.Enqueuer
	cfg          config.VerifyConfig
	logg         *logger.Logger
	generateCode func() (string, error)
}

// NewService wires the customer service dependencies.
func NewService(
	repo Repository,
	verification verificationStore,
	smsQueue sms.Enqueuer,
	cfg config.VerifyConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if verification == nil {
		return nil, fmt.Errorf("verification store required")
	}
	if smsQueue == nil {
		return nil, fmt.Errorf("sms enqueuer required")
	}
	if cfg.CodeTTL <= 0 {
		return nil, fmt.Errorf("verification code ttl must be positive")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:         repo,
		verification: verification,
		smsQueue:     smsQueue,
		cfg:          cfg,
		logg:         logg,
		generateCode: randomCode,
	}, nil
}

func (s *service) Me(ctx context.Context, customerID uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.loadCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	resp := toCustomerResponse(customer)
	return &resp, nil
}

// UpdateMe patches the profile. A changed phone number is never written
// directly: a verification code goes out over SMS and the number stays
// pending in Redis until VerifyPhone confirms it.
func (s *service) UpdateMe(ctx context.Context, customerID uuid.UUID, input UpdateMeInput) (*UpdateMeResponse, error) {
	customer, err := s.loadCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Email != nil {
		updates["email"] = strings.TrimSpace(*input.Email)
	}

	detail := ""
	if input.PhoneNumber != nil {
		newPhone := strings.TrimSpace(*input.PhoneNumber)
		currentPhone := ""
		if customer.PhoneNumber != nil {
			currentPhone = *customer.PhoneNumber
		}
		if newPhone != "" && newPhone != currentPhone {
			if err := s.startPhoneVerification(ctx, customer, newPhone); err != nil {
				return nil, err
			}
			detail = verifyDetailCodeSent
		}
	}

	if len(updates) > 0 {
		if err := s.repo.UpdateCustomer(ctx, customer.ID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
		}
		if email, ok := updates["email"].(string); ok {
			customer.Email = email
		}
	}

	return &UpdateMeResponse{
		Detail:   detail,
		Customer: toCustomerResponse(customer),
	}, nil
}

// VerifyPhone checks the submitted code against the cached pair and promotes
// the pending phone number onto the profile.
func (s *service) VerifyPhone(ctx context.Context, customerID uuid.UUID, input VerifyPhoneInput) (*VerifyPhoneResponse, error) {
	customer, err := s.loadCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	pending, err := s.verification.GetVerification(ctx, customerID.String())
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, verifyFailedMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load verification code")
	}
	if strings.TrimSpace(input.Code) != pending.Code || pending.Phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, verifyFailedMessage)
	}

	if err := s.repo.UpdateCustomer(ctx, customer.ID, map[string]any{
		"phone_number":      pending.Phone,
		"is_phone_verified": true,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save verified phone")
	}

	if err := s.verification.ClearVerification(ctx, customerID.String()); err != nil {
		// The keys expire on their own; a failed cleanup is not fatal.
		s.logg.Warn(s.logg.WithCustomerID(ctx, customerID.String()), "failed to clear verification keys")
	}

	customer.PhoneNumber = &pending.Phone
	customer.IsPhoneVerified = true

	return &VerifyPhoneResponse{
		Detail:   verifyDetailSaved,
		Customer: toCustomerResponse(customer),
	}, nil
}

func (s *service) startPhoneVerification(ctx context.Context, customer *models.Customer, newPhone string) error {
	allowed, _, err := s.verification.FixedWindowAllow(
		ctx,
		phoneChangeScope+":"+customer.ID.String(),
		s.cfg.RequestLimit,
		s.cfg.RequestWindow,
	)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check verification rate limit")
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeValidation,
			"Too many verification requests. Please try again later.")
	}

	existing, err := s.repo.FindByPhone(ctx, newPhone)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check phone uniqueness")
	}
	if existing != nil && existing.ID != customer.ID {
		return pkgerrors.New(pkgerrors.CodeValidation,
			"This phone number is already in use.")
	}

	code, err := s.generateCode()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate verification code")
	}

	pending := redis.PendingVerification{Code: code, Phone: newPhone}
	if err := s.verification.StoreVerification(ctx, customer.ID.String(), pending, s.cfg.CodeTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store verification code")
	}

	// Fire and forget: a failed enqueue must not block the profile update.
	if err := s.smsQueue.Enqueue(ctx, newPhone, fmt.Sprintf(smsCodeTemplate, code)); err != nil {
		s.logg.Error(s.logg.WithCustomerID(ctx, customer.ID.String()), "failed to enqueue verification sms", err)
	}
	return nil
}

func (s *service) loadCustomer(ctx context.Context, customerID uuid.UUID) (*models.Customer, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}
