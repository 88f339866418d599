package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/drishiq/drishiq/app/models"
	"github.com/drishiq/drishiq/internal/pkg/credits"
	"github.com/drishiq/drishiq/internal/pkg/metrics/counter"
	"github.com/drishiq/drishiq/internal/pkg/otp"
	"github.com/drishiq/drishiq/internal/pkg/plans"
	"github.com/drishiq/drishiq/internal/pkg/statistics"
)

// InvitationExpirer moves stale pending invitations to expired.
type InvitationExpirer interface {
	ExpireStalePending(ctx context.Context, olderThan time.Time) (int64, error)
}

// UploadFinalizer closes out uploads stuck in processing.
type UploadFinalizer interface {
	FinalizeStuck(ctx context.Context, olderThan time.Time) (int64, error)
}

// PaidAccountLister returns the accounts due a monthly plan grant.
type PaidAccountLister interface {
	ListActivePaid() ([]models.User, error)
}

// PlanCreditGranter appends plan grants to the credit ledger.
type PlanCreditGranter interface {
	Grant(ctx context.Context, userID uint, amount int, reason, reference string) error
}

// InvitationMaxAge is how long a request may sit pending before it expires.
const InvitationMaxAge = 30 * 24 * time.Hour

// GrantMonthlyPlanCredits credits every active paying account with its plan's
// monthly allowance. The reference carries the billing period so reruns are
// visible in the ledger. One failed grant does not stop the others.
func GrantMonthlyPlanCredits(ctx context.Context, users PaidAccountLister, granter PlanCreditGranter, now time.Time) (int, error) {
	accounts, err := users.ListActivePaid()
	if err != nil {
		return 0, err
	}
	reference := "plan:" + now.Format("2006-01")
	granted := 0
	for _, u := range accounts {
		amount := plans.MonthlyCredits(plans.Normalize(u.Plan))
		if amount <= 0 {
			continue
		}
		if err := granter.Grant(ctx, u.ID, amount, models.TxReasonPlanGrant, reference); err != nil {
			logrus.WithError(err).WithField("user_id", u.ID).Error("monthly plan grant failed")
			continue
		}
		granted++
	}
	return granted, nil
}

// StartScheduler wires the recurring maintenance jobs and starts the cron
// loop. The returned cron can be stopped on shutdown.
func StartScheduler(consumption *credits.ConsumptionService, otpService *otp.Service, invitations InvitationExpirer, uploads UploadFinalizer, users PaidAccountLister) *cron.Cron {
	c := cron.New()

	// Every 5 minutes: release credit holds past their expiry.
	if _, err := c.AddFunc("*/5 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		released, err := consumption.ReleaseExpired(ctx, time.Now())
		if err != nil {
			logrus.WithError(err).Error("cron: failed to release expired holds")
			return
		}
		if released > 0 {
			logrus.WithField("released", released).Info("cron: expired credit holds released")
		}
	}); err != nil {
		logrus.WithError(err).Error("failed to schedule hold release job")
	}

	// Every 6 hours: expire invitations that sat pending too long.
	if _, err := c.AddFunc("0 */6 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		expired, err := invitations.ExpireStalePending(ctx, time.Now().Add(-InvitationMaxAge))
		if err != nil {
			logrus.WithError(err).Error("cron: failed to expire stale invitations")
			return
		}
		if expired > 0 {
			logrus.WithField("expired", expired).Info("cron: stale invitations expired")
		}
	}); err != nil {
		logrus.WithError(err).Error("failed to schedule invitation expiry job")
	}

	// Hourly: close out uploads stuck in processing for over a day and
	// drop used-up verification codes.
	if _, err := c.AddFunc("0 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if finalized, err := uploads.FinalizeStuck(ctx, time.Now().Add(-24*time.Hour)); err != nil {
			logrus.WithError(err).Error("cron: failed to finalize stuck uploads")
		} else if finalized > 0 {
			logrus.WithField("finalized", finalized).Warn("cron: stuck bulk uploads closed")
		}
		if purged, err := otpService.PurgeExpired(ctx, time.Now().Add(-24*time.Hour)); err != nil {
			logrus.WithError(err).Error("cron: failed to purge expired codes")
		} else if purged > 0 {
			logrus.WithField("purged", purged).Info("cron: expired verification codes purged")
		}
	}); err != nil {
		logrus.WithError(err).Error("failed to schedule cleanup job")
	}

	// First of the month: grant paying accounts their plan's credits.
	if _, err := c.AddFunc("0 2 1 * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		granted, err := GrantMonthlyPlanCredits(ctx, users, consumption, time.Now())
		if err != nil {
			logrus.WithError(err).Error("cron: monthly plan grants failed")
			return
		}
		if granted > 0 {
			logrus.WithField("granted", granted).Info("cron: monthly plan credits granted")
		}
	}); err != nil {
		logrus.WithError(err).Error("failed to schedule plan grant job")
	}

	// Every minute: flush pending view counters to the database.
	if _, err := c.AddFunc("* * * * *", func() {
		if err := counter.FlushAll(); err != nil {
			logrus.WithError(err).Error("cron: failed to flush view counters")
		}
	}); err != nil {
		logrus.WithError(err).Error("failed to schedule counter flush job")
	}

	// Every 10 minutes: refresh dashboard statistics.
	if _, err := c.AddFunc("*/10 * * * *", func() {
		if err := statistics.UpdateStatisticsCache(); err != nil {
			logrus.WithError(err).Error("cron: failed to refresh statistics cache")
		}
	}); err != nil {
		logrus.WithError(err).Error("failed to schedule statistics refresh job")
	}

	c.Start()
	logrus.Info("maintenance jobs scheduled")
	return c
}
