package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/models"
)

// Webhook event types delivered by the processor.
const (
	EventChargeSucceeded = "charge.succeeded"
	EventChargeFailed    = "charge.failed"
	EventChargeRefunded  = "charge.refunded"
)

var (
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	ErrMissingEventID   = errors.New("provider and provider_event_id are required")
	ErrUnknownPackage   = errors.New("webhook references an unknown credit package")
	ErrUnknownUser      = errors.New("webhook references an unknown user")
)

// CreditGranter appends a purchase grant to a user's credit ledger.
type CreditGranter interface {
	Grant(ctx context.Context, userID uint, amount int, reason, reference string) error
}

// WebhookResult reports what happened to one delivered event.
type WebhookResult struct {
	EventID   uint   `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
	Handled   bool   `json:"handled"`
	EventType string `json:"event_type"`
}

// Service processes payment processor webhooks and exposes the package
// catalog. Event intake is idempotent on (provider, provider_event_id), so a
// redelivered charge never grants credits twice.
type Service struct {
	repo    Repository
	granter CreditGranter
}

func NewService(repo Repository, granter CreditGranter) *Service {
	return &Service{repo: repo, granter: granter}
}

func NewServiceFromDB(db *gorm.DB, granter CreditGranter) *Service {
	return NewService(NewRepository(db), granter)
}

// ListPackages returns the purchasable credit bundles.
func (s *Service) ListPackages(ctx context.Context) ([]models.CreditPackage, error) {
	_ = ctx
	return s.repo.ListActivePackages()
}

// GetPackage resolves an active package by its code.
func (s *Service) GetPackage(ctx context.Context, code string) (*models.CreditPackage, error) {
	_ = ctx
	return s.repo.GetPackageByCode(strings.TrimSpace(code))
}

type chargeEventPayload struct {
	ChargeID    string `json:"charge_id"`
	UserID      uint   `json:"user_id"`
	PackageCode string `json:"package_code"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
}

// HandleWebhook stores the delivered event and, for a successful charge,
// grants the purchased credits exactly once. Duplicate deliveries are
// acknowledged without side effects.
func (s *Service) HandleWebhook(ctx context.Context, provider, providerEventID, eventType string, payload []byte, signatureValid bool) (*WebhookResult, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	providerEventID = strings.TrimSpace(providerEventID)
	if provider == "" || providerEventID == "" {
		return nil, ErrMissingEventID
	}

	event := &models.PaymentWebhookEvent{
		Provider:        provider,
		ProviderEventID: providerEventID,
		EventType:       eventType,
		PayloadJSON:     string(payload),
		SignatureValid:  signatureValid,
	}
	created, stored, err := s.repo.CreateWebhookEventIfNotExists(event)
	if err != nil {
		return nil, err
	}

	result := &WebhookResult{EventID: stored.ID, EventType: eventType}
	if !created && stored.ProcessedAt != nil {
		result.Duplicate = true
		logrus.WithFields(logrus.Fields{
			"provider": provider,
			"event_id": providerEventID,
		}).Info("duplicate webhook delivery skipped")
		return result, nil
	}

	if !signatureValid {
		_ = s.repo.MarkWebhookProcessed(stored.ID, "invalid signature")
		return result, ErrInvalidSignature
	}

	switch eventType {
	case EventChargeSucceeded:
		if err := s.processChargeSucceeded(ctx, payload); err != nil {
			_ = s.repo.MarkWebhookProcessed(stored.ID, err.Error())
			return result, err
		}
		result.Handled = true
	case EventChargeFailed, EventChargeRefunded:
		// Recorded for reconciliation, no ledger effect.
	default:
		logrus.WithField("event_type", eventType).Debug("ignoring unhandled webhook event type")
	}

	if err := s.repo.MarkWebhookProcessed(stored.ID, ""); err != nil {
		return result, err
	}
	return result, nil
}

func (s *Service) processChargeSucceeded(ctx context.Context, payload []byte) error {
	var data chargeEventPayload
	if err := json.Unmarshal(payload, &data); err != nil {
		return fmt.Errorf("unparseable charge payload: %w", err)
	}
	if data.UserID == 0 || strings.TrimSpace(data.ChargeID) == "" {
		return errors.New("charge payload missing user_id or charge_id")
	}

	pkg, err := s.repo.GetPackageByCode(data.PackageCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnknownPackage
		}
		return err
	}
	if _, err := s.repo.GetUserByID(data.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnknownUser
		}
		return err
	}

	if err := s.granter.Grant(ctx, data.UserID, pkg.Credits, models.TxReasonPurchase, data.ChargeID); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"user_id": data.UserID,
		"package": pkg.Code,
		"credits": pkg.Credits,
	}).Info("purchase credited")
	return nil
}
