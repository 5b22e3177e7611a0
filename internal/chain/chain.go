// Package chain defines the boundary to the ledger node. The registration
// pipeline depends only on these interfaces; the substrate subpackage
// provides the real client.
package chain

import (
	"context"
	"fmt"
	"math/big"
)

// ExternalResource is a typed contact link carried in the membership
// metadata.
type ExternalResource struct {
	Type  string
	Value string
}

// NewMember carries everything needed to grant one membership.
type NewMember struct {
	Account           string
	Handle            string
	Name              string
	Avatar            string
	About             string
	ExternalResources []ExternalResource
}

// BlockRef is best effort block information for an included transaction.
// Known is false when the height lookup failed after the grant succeeded.
type BlockRef struct {
	Known  bool
	Number uint32
	Hash   string
}

// MemberGrant is the terminal success outcome of a membership submission.
type MemberGrant struct {
	MemberID uint64
	Block    BlockRef
}

// Client is what the registration pipeline requires from the node: read
// only queries, a serialized submission operation with a terminal status,
// and a block height lookup.
type Client interface {
	IsSyncing(ctx context.Context) (bool, error)

	// ChainName identifies the connected chain.
	ChainName(ctx context.Context) (string, error)

	// IsFreshAccount reports whether account has a zero nonce and a zero
	// free balance.
	IsFreshAccount(ctx context.Context, account string) (bool, error)

	// HandleRegistered reports whether the handle's content hash is
	// already claimed on chain.
	HandleRegistered(ctx context.Context, handle string) (bool, error)

	// InviterInvites returns the inviting member's remaining invite count.
	InviterInvites(ctx context.Context) (uint32, error)

	// SignerFreeBalance returns the free balance of the faucet's signing
	// account.
	SignerFreeBalance(ctx context.Context) (*big.Int, error)

	// WorkingGroupBudget returns the membership working group's budget.
	WorkingGroupBudget(ctx context.Context) (*big.Int, error)

	// MembershipPrice returns the default initial invitation balance the
	// chain debits per grant.
	MembershipPrice(ctx context.Context) (*big.Int, error)

	// GrantFee estimates the transaction fee of one membership grant.
	GrantFee(ctx context.Context) (*big.Int, error)

	// InviteMember submits the membership grant under the faucet's signing
	// key and waits for a terminal outcome. The caller must hold the
	// submission lock.
	InviteMember(ctx context.Context, member NewMember) (*MemberGrant, error)

	// TransferBalance tops up account from the signing key. The caller
	// must hold the submission lock.
	TransferBalance(ctx context.Context, account string, amount *big.Int) error
}

// TransactionError is an infrastructure level submission failure: the
// transaction was dropped, timed out awaiting finality, was invalid or was
// usurped before inclusion. Safe for the caller to retry later.
type TransactionError struct {
	Status string
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction failed: %s", e.Status)
}

// ProcessingError is an on-chain rejection of an included transaction,
// named after the dispatch error. Retrying with the same inputs will fail
// again.
type ProcessingError struct {
	Name string
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("transaction processing failed: %s", e.Name)
}
