package shared

import "strings"

// BillingMode defines how a community charges its units
type BillingMode string

const (
	// BillingModeAreaRate bills each unit as rate-per-area times floor area
	BillingModeAreaRate BillingMode = "AREA_RATE"
	// BillingModeFixedAmount bills every unit the same configured amount
	BillingModeFixedAmount BillingMode = "FIXED_AMOUNT"
)

// ParseBillingMode normalizes a community type label into a BillingMode.
// Labels predate strict typing and arrive as free text ("Apartment",
// "standalone buildings", "Fixed"); anything mentioning a standalone or
// fixed arrangement bills a fixed amount, everything else by area.
func ParseBillingMode(label string) BillingMode {
	l := strings.ToLower(label)
	if strings.Contains(l, "standalone") || strings.Contains(l, "fixed") {
		return BillingModeFixedAmount
	}
	return BillingModeAreaRate
}

// RecordStatus defines the payment lifecycle of a ledger record
type RecordStatus string

const (
	RecordStatusPending   RecordStatus = "PENDING"
	RecordStatusSubmitted RecordStatus = "SUBMITTED"
	RecordStatusPaid      RecordStatus = "PAID"
)

// RevisionStatus defines the lifecycle of an opening balance revision request
type RevisionStatus string

const (
	RevisionStatusPending  RevisionStatus = "PENDING"
	RevisionStatusApproved RevisionStatus = "APPROVED"
	RevisionStatusRejected RevisionStatus = "REJECTED"
)

// OutboxStatus defines audit message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
