package plans

import "strings"

type Plan string

const (
	PlanFree       Plan = "free"
	PlanSupporter  Plan = "supporter"
	PlanEnterprise Plan = "enterprise"
)

// Normalize maps arbitrary input to a known plan, defaulting to free.
func Normalize(raw string) Plan {
	switch Plan(strings.ToLower(strings.TrimSpace(raw))) {
	case PlanSupporter:
		return PlanSupporter
	case PlanEnterprise:
		return PlanEnterprise
	default:
		return PlanFree
	}
}

// Rank orders plans so the highest entitlement wins when a user carries
// several sources of membership.
func Rank(p Plan) int {
	switch p {
	case PlanEnterprise:
		return 2
	case PlanSupporter:
		return 1
	default:
		return 0
	}
}

// Effective resolves a user's plan from all of their entitlement sources,
// picking the highest-ranked one. Organization memberships can lift a free
// account to the organization's plan.
func Effective(own Plan, memberships ...Plan) Plan {
	best := own
	for _, p := range memberships {
		if Rank(p) > Rank(best) {
			best = p
		}
	}
	return best
}

// MonthlyCredits returns the session credits granted at the start of each
// billing period for a plan.
func MonthlyCredits(p Plan) int {
	switch p {
	case PlanEnterprise:
		return 50
	case PlanSupporter:
		return 10
	default:
		return 0
	}
}

// MaxActiveReservations limits how many credit holds a user may keep open at
// once.
func MaxActiveReservations(p Plan) int {
	switch p {
	case PlanEnterprise:
		return 20
	case PlanSupporter:
		return 5
	default:
		return 2
	}
}

// BulkImportRowLimit caps the number of data rows a single CSV import may
// carry for the uploader's plan.
func BulkImportRowLimit(p Plan) int {
	switch p {
	case PlanEnterprise:
		return 5000
	case PlanSupporter:
		return 500
	default:
		return 100
	}
}
