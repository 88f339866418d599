package models

// DailyStats holds one day's aggregate for dashboard charts.
type DailyStats struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// CategoryStats holds per-category invitation counts with derived credit
// totals for the admin dashboard.
type CategoryStats struct {
	Category         string `json:"category"`
	Total            int64  `json:"total"`
	Pending          int64  `json:"pending"`
	Approved         int64  `json:"approved"`
	CreditsAllocated int64  `json:"credits_allocated"`
	CreditsUsed      int64  `json:"credits_used"`
}
