package constants

// Static route constants
const (
	APIBase    = "/api/v1"
	AdminBase  = "/api/v1/admin"
	AuthBase   = "/auth"
	HealthPath = "/health"
)
