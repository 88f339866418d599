package statistics

import (
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/drishiq/drishiq/app/models"
	"github.com/drishiq/drishiq/internal/pkg/cache"
	"github.com/drishiq/drishiq/internal/pkg/database"
)

const (
	CacheKeyInvitationsTotal = "statistics:invitations:total"
	CacheKeyUsersTotal       = "statistics:users:total"
	CacheKeyCreditsIssued    = "statistics:credits:issued"
	CacheExpiration          = 30 * time.Minute
)

// DashboardData holds the headline numbers for the admin dashboard.
type DashboardData struct {
	TotalInvitations   int64                  `json:"total_invitations"`
	PendingInvitations int64                  `json:"pending_invitations"`
	TotalUsers         int64                  `json:"total_users"`
	CreditsIssued      int64                  `json:"credits_issued"`
	Categories         []models.CategoryStats `json:"categories"`
	DailyRequests      []models.DailyStats    `json:"daily_requests"`
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the cached headline numbers are stale.
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()
	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cached totals when they are stale.
func UpdateCacheIfNeeded() {
	if !ShouldUpdateCache() {
		return
	}
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	if err := UpdateStatisticsCache(); err != nil {
		logrus.WithError(err).Error("failed to update statistics cache")
		return
	}
	lastCacheUpdate = time.Now()
}

// UpdateStatisticsCache recomputes the cached totals from the database.
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalInvitations int64
	if err := db.Model(&models.Invitation{}).Count(&totalInvitations).Error; err != nil {
		return err
	}
	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}
	var creditsIssued int64
	if err := db.Model(&models.CreditAllocation{}).
		Select("COALESCE(SUM(credits_allocated), 0)").
		Scan(&creditsIssued).Error; err != nil {
		return err
	}

	if err := cache.Set(CacheKeyInvitationsTotal, strconv.FormatInt(totalInvitations, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyUsersTotal, strconv.FormatInt(totalUsers, 10), CacheExpiration); err != nil {
		return err
	}
	return cache.Set(CacheKeyCreditsIssued, strconv.FormatInt(creditsIssued, 10), CacheExpiration)
}

// GetDashboardData computes the full dashboard aggregate set. Headline
// numbers come from the cache when fresh; breakdowns always hit the DB.
func GetDashboardData(days int) (*DashboardData, error) {
	UpdateCacheIfNeeded()
	db := database.GetDB()
	data := &DashboardData{}

	if v, err := cache.GetInt(CacheKeyInvitationsTotal); err == nil {
		data.TotalInvitations = int64(v)
	} else if err := db.Model(&models.Invitation{}).Count(&data.TotalInvitations).Error; err != nil {
		return nil, err
	}
	if v, err := cache.GetInt(CacheKeyUsersTotal); err == nil {
		data.TotalUsers = int64(v)
	} else if err := db.Model(&models.User{}).Count(&data.TotalUsers).Error; err != nil {
		return nil, err
	}
	if v, err := cache.GetInt(CacheKeyCreditsIssued); err == nil {
		data.CreditsIssued = int64(v)
	} else if err := db.Model(&models.CreditAllocation{}).
		Select("COALESCE(SUM(credits_allocated), 0)").
		Scan(&data.CreditsIssued).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.Invitation{}).
		Where("status = ?", models.InvitationPending).
		Count(&data.PendingInvitations).Error; err != nil {
		return nil, err
	}

	categories, err := CategoryBreakdown()
	if err != nil {
		return nil, err
	}
	data.Categories = categories

	daily, err := DailyRequestCounts(days)
	if err != nil {
		return nil, err
	}
	data.DailyRequests = daily
	return data, nil
}

// CategoryBreakdown aggregates invitations and their credit ledgers per
// category.
func CategoryBreakdown() ([]models.CategoryStats, error) {
	db := database.GetDB()
	var stats []models.CategoryStats
	err := db.Model(&models.Invitation{}).
		Select(`invitations.category,
			COUNT(*) AS total,
			SUM(CASE WHEN invitations.status = 'pending' THEN 1 ELSE 0 END) AS pending,
			SUM(CASE WHEN invitations.status = 'approved' THEN 1 ELSE 0 END) AS approved,
			COALESCE(SUM(credit_allocations.credits_allocated), 0) AS credits_allocated,
			COALESCE(SUM(credit_allocations.credits_used), 0) AS credits_used`).
		Joins("LEFT JOIN credit_allocations ON credit_allocations.invitation_id = invitations.id").
		Group("invitations.category").
		Order("invitations.category").
		Scan(&stats).Error
	return stats, err
}

// DailyRequestCounts returns per-day invitation request counts for the last
// N days, newest last.
func DailyRequestCounts(days int) ([]models.DailyStats, error) {
	if days <= 0 {
		days = 30
	}
	db := database.GetDB()
	since := time.Now().AddDate(0, 0, -days)

	var stats []models.DailyStats
	err := db.Model(&models.Invitation{}).
		Select("DATE(created_at) AS date, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&stats).Error
	return stats, err
}
