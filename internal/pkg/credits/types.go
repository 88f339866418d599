package credits

import "github.com/drishiq/drishiq/app/models"

// AllocationResult is the outcome of a single allocation.
type AllocationResult struct {
	Allocation *models.CreditAllocation `json:"allocation"`
	Available  int                      `json:"available"`
	Created    bool                     `json:"created"`
}

// BulkAllocationItemError records one failed invitation inside a bulk
// allocation. Bulk allocation is a batch of independent attempts; item
// failures never roll back other items.
type BulkAllocationItemError struct {
	InvitationID uint   `json:"invitation_id"`
	Error        string `json:"error"`
}

// BulkAllocationSummary aggregates a bulk allocation outcome.
type BulkAllocationSummary struct {
	Requested            int `json:"requested"`
	Succeeded            int `json:"succeeded"`
	Failed               int `json:"failed"`
	CreditsPerInvitation int `json:"credits_per_invitation"`
}

// BulkAllocationResult carries per-item results and errors plus the summary.
type BulkAllocationResult struct {
	Results []AllocationResult        `json:"results"`
	Errors  []BulkAllocationItemError `json:"errors"`
	Summary BulkAllocationSummary     `json:"summary"`
}

// BalanceInfo is the member-facing view of a user's credit state.
type BalanceInfo struct {
	Balance   int `json:"balance"`
	Held      int `json:"held"`
	Available int `json:"available"`
}
