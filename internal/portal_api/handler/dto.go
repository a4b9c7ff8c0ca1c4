package handler

// CreateCommunityRequest represents a request to register a new community
type CreateCommunityRequest struct {
	Name string `json:"name" binding:"required"`
	// BillingMode accepts legacy free-text labels; it is normalized server-side
	BillingMode string `json:"billing_mode" binding:"required"`
	RatePerArea int64  `json:"rate_per_area" binding:"min=0"`
	FixedAmount int64  `json:"fixed_amount" binding:"min=0"`
}

// CommunityResponse represents a community in API responses
type CommunityResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	BillingMode    string `json:"billing_mode"`
	RatePerArea    int64  `json:"rate_per_area"`
	FixedAmount    int64  `json:"fixed_amount"`
	OpeningBalance *int64 `json:"opening_balance,omitempty"`
	BalanceLocked  bool   `json:"balance_locked"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// CreateUnitRequest represents a request to register a unit in a community
type CreateUnitRequest struct {
	Label        string  `json:"label" binding:"required"`
	FloorArea    float64 `json:"floor_area" binding:"min=0"`
	OwnerID      string  `json:"owner_id" binding:"required,uuid"`
	BillingStart string  `json:"billing_start,omitempty"`
}

// UnitResponse represents a unit in API responses
type UnitResponse struct {
	ID           string  `json:"id"`
	CommunityID  string  `json:"community_id"`
	Label        string  `json:"label"`
	FloorArea    float64 `json:"floor_area"`
	OwnerID      string  `json:"owner_id"`
	BillingStart string  `json:"billing_start,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// SetOpeningBalanceRequest sets and locks a community's opening balance
type SetOpeningBalanceRequest struct {
	Amount int64 `json:"amount" binding:"min=0"`
}

// CreateRevisionRequest asks for an overwrite of a locked opening balance
type CreateRevisionRequest struct {
	Amount int64  `json:"amount" binding:"min=0"`
	Reason string `json:"reason" binding:"required"`
}

// RevisionResponse represents a balance revision request in API responses
type RevisionResponse struct {
	ID          string `json:"id"`
	CommunityID string `json:"community_id"`
	RequestedBy string `json:"requested_by"`
	Amount      int64  `json:"amount"`
	Reason      string `json:"reason"`
	Status      string `json:"status"`
	ResolvedBy  string `json:"resolved_by,omitempty"`
	CreatedAt   string `json:"created_at"`
	ResolvedAt  string `json:"resolved_at,omitempty"`
}

// GeneratePeriodsRequest triggers on-demand period generation for a unit
type GeneratePeriodsRequest struct {
	// AsOf bounds generation to the month containing it; empty means now
	AsOf string `json:"as_of,omitempty"`
}

// BackfillRequestBody triggers an asynchronous community-wide backfill
type BackfillRequestBody struct {
	AsOf string `json:"as_of,omitempty"`
}

// RecordResponse represents a ledger record in API responses
type RecordResponse struct {
	ID          string `json:"id"`
	UnitID      string `json:"unit_id"`
	CommunityID string `json:"community_id"`
	Period      string `json:"period"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// CreateExpenseRequest books a community expense against a billing period
type CreateExpenseRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description" binding:"required"`
	IncurredAt  string `json:"incurred_at,omitempty"`
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID          string `json:"id"`
	CommunityID string `json:"community_id"`
	Period      string `json:"period"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	RecordedBy  string `json:"recorded_by"`
	CreatedAt   string `json:"created_at"`
}

// MonthSummaryResponse is one community's rollup for a single period
type MonthSummaryResponse struct {
	CommunityID    string `json:"community_id"`
	Period         string `json:"period"`
	Collected      int64  `json:"collected"`
	Expenses       int64  `json:"expenses"`
	PendingDues    int64  `json:"pending_dues"`
	ClosingBalance *int64 `json:"closing_balance,omitempty"`
}

// YearReportResponse chains twelve monthly summaries with closing balances
type YearReportResponse struct {
	CommunityID    string                 `json:"community_id"`
	Year           int                    `json:"year"`
	OpeningBalance int64                  `json:"opening_balance"`
	TotalCollected int64                  `json:"total_collected"`
	TotalExpenses  int64                  `json:"total_expenses"`
	Months         []MonthSummaryResponse `json:"months"`
}

// AuditEntryResponse represents an audit log entry in API responses
type AuditEntryResponse struct {
	ID         string           `json:"id"`
	EntityKind string           `json:"entity_kind"`
	EntityID   string           `json:"entity_id"`
	Action     string           `json:"action"`
	ActorID    string           `json:"actor_id"`
	Changes    []ChangeResponse `json:"changes"`
	CreatedAt  string           `json:"created_at"`
}

// ChangeResponse is one rendered field difference within an audit entry
type ChangeResponse struct {
	Key string `json:"key"`
	Old any    `json:"old,omitempty"`
	New any    `json:"new,omitempty"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
