package community

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines community persistence operations, including the
// opening balance state machine and its revision requests.
type Repository interface {
	Create(ctx context.Context, c *Community) error
	GetByID(ctx context.Context, id uuid.UUID) (*Community, error)
	List(ctx context.Context, limit, offset int) ([]*Community, error)

	// LockOpeningBalance sets the opening balance and locks it, preconditioned
	// on the balance not already being locked. Returns ErrBalanceLocked if it is.
	LockOpeningBalance(ctx context.Context, id uuid.UUID, amount int64) error

	// OverwriteOpeningBalance replaces a locked balance. Only the approved
	// revision path may call this; it is preconditioned on the lock being held.
	OverwriteOpeningBalance(ctx context.Context, id uuid.UUID, amount int64) error

	// CreateRevision inserts a pending revision request. Returns
	// ErrRevisionPending if the community already has one outstanding.
	CreateRevision(ctx context.Context, req *RevisionRequest) error
	GetPendingRevision(ctx context.Context, communityID uuid.UUID) (*RevisionRequest, error)

	// ResolveRevision transitions a request out of PENDING via compare-and-swap.
	// The loser of a concurrent resolution race receives ErrRevisionResolved.
	ResolveRevision(ctx context.Context, req *RevisionRequest) error

	WithTx(tx pgx.Tx) Repository
}

// ErrCommunityNotFound indicates missing community
type ErrCommunityNotFound struct {
	CommunityID uuid.UUID
}

func (e ErrCommunityNotFound) Error() string {
	return "community not found: " + e.CommunityID.String()
}

// Is implements the errors.Is interface for ErrCommunityNotFound
func (e ErrCommunityNotFound) Is(target error) bool {
	t, ok := target.(ErrCommunityNotFound)
	if !ok {
		return false
	}
	if t.CommunityID == uuid.Nil {
		return true
	}
	return e.CommunityID == t.CommunityID
}

// ErrBalanceLocked indicates an attempt to set an opening balance that is
// already locked; locked balances change only through approved revisions.
type ErrBalanceLocked struct {
	CommunityID uuid.UUID
}

func (e ErrBalanceLocked) Error() string {
	return "opening balance already locked for community: " + e.CommunityID.String()
}

// ErrBalanceUnset indicates an operation that requires a locked opening balance
type ErrBalanceUnset struct {
	CommunityID uuid.UUID
}

func (e ErrBalanceUnset) Error() string {
	return "opening balance not locked for community: " + e.CommunityID.String()
}

// ErrRevisionPending indicates the community already has an outstanding request
type ErrRevisionPending struct {
	CommunityID uuid.UUID
}

func (e ErrRevisionPending) Error() string {
	return "revision request already pending for community: " + e.CommunityID.String()
}

// ErrNoPendingRevision indicates there is no outstanding request to resolve
type ErrNoPendingRevision struct {
	CommunityID uuid.UUID
}

func (e ErrNoPendingRevision) Error() string {
	return "no pending revision request for community: " + e.CommunityID.String()
}

// Is implements the errors.Is interface for ErrNoPendingRevision
func (e ErrNoPendingRevision) Is(target error) bool {
	t, ok := target.(ErrNoPendingRevision)
	if !ok {
		return false
	}
	if t.CommunityID == uuid.Nil {
		return true
	}
	return e.CommunityID == t.CommunityID
}

// ErrRevisionResolved indicates the request was resolved by a concurrent actor
type ErrRevisionResolved struct {
	RequestID uuid.UUID
}

func (e ErrRevisionResolved) Error() string {
	return "revision request already resolved: " + e.RequestID.String()
}

// ErrSelfApproval indicates a requester attempting to resolve their own request
type ErrSelfApproval struct {
	RequestID uuid.UUID
	AdminID   uuid.UUID
}

func (e ErrSelfApproval) Error() string {
	return "admin " + e.AdminID.String() + " cannot resolve their own revision request: " + e.RequestID.String()
}
