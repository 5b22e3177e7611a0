package register

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"member-faucet/internal/chain"
)

// Snapshot is the faucet's capacity breakdown, derived fresh from chain
// state per request. It feeds the alert message only; callers of the HTTP
// API never see the individual conditions.
type Snapshot struct {
	HasInvitesOrCredit    bool
	HasTopUpBalance       bool
	WorkingGroupHasBudget bool
}

func (s Snapshot) Eligible() bool {
	return s.HasInvitesOrCredit && s.HasTopUpBalance && s.WorkingGroupHasBudget
}

func (s Snapshot) Describe() string {
	failed := []string{}
	if !s.HasInvitesOrCredit {
		failed = append(failed, "no invites or credit left")
	}
	if !s.HasTopUpBalance {
		failed = append(failed, "signing account cannot afford the top-up")
	}
	if !s.WorkingGroupHasBudget {
		failed = append(failed, "working group budget below invitation balance")
	}
	if len(failed) == 0 {
		return "eligible"
	}
	return strings.Join(failed, "; ")
}

// Capability is one chain-feature variant of the faucet: how eligibility
// is computed and what happens to the new account after the grant.
type Capability interface {
	Eligibility(ctx context.Context) (Snapshot, error)
	TopUp(ctx context.Context, account string) (attempted bool, err error)
}

// NewCapability selects the variant from configuration: a configured
// credit amount selects the gift flow, otherwise the classic invite plus
// optional top-up flow.
func NewCapability(client chain.Client, topUpAmount, creditAmount uint64) Capability {
	if creditAmount > 0 {
		return &giftWithCredit{chain: client, credit: new(big.Int).SetUint64(creditAmount)}
	}
	return &inviteAndTopUp{chain: client, topUpAmount: new(big.Int).SetUint64(topUpAmount)}
}

// inviteAndTopUp grants via the inviting member's invite quota and then
// optionally transfers a starting balance.
type inviteAndTopUp struct {
	chain       chain.Client
	topUpAmount *big.Int
}

func (c *inviteAndTopUp) Eligibility(ctx context.Context) (Snapshot, error) {
	snapshot := Snapshot{}

	invites, err := c.chain.InviterInvites(ctx)
	if err != nil {
		return snapshot, fmt.Errorf("querying inviter invites: %w", err)
	}
	snapshot.HasInvitesOrCredit = invites > 0

	snapshot.HasTopUpBalance = true
	if c.topUpAmount.Sign() > 0 {
		balance, err := c.chain.SignerFreeBalance(ctx)
		if err != nil {
			return snapshot, fmt.Errorf("querying signer balance: %w", err)
		}
		snapshot.HasTopUpBalance = balance.Cmp(c.topUpAmount) > 0
	}

	budget, err := c.chain.WorkingGroupBudget(ctx)
	if err != nil {
		return snapshot, fmt.Errorf("querying working group budget: %w", err)
	}
	price, err := c.chain.MembershipPrice(ctx)
	if err != nil {
		return snapshot, fmt.Errorf("querying membership price: %w", err)
	}
	snapshot.WorkingGroupHasBudget = budget.Cmp(price) >= 0

	return snapshot, nil
}

func (c *inviteAndTopUp) TopUp(ctx context.Context, account string) (bool, error) {
	if c.topUpAmount.Sign() == 0 {
		return false, nil
	}
	return true, c.chain.TransferBalance(ctx, account, c.topUpAmount)
}

// giftWithCredit grants by paying the membership fee plus a starting
// credit out of the signing account; eligibility is a single funds
// predicate covering fee, transaction fee and credit.
type giftWithCredit struct {
	chain  chain.Client
	credit *big.Int
}

func (c *giftWithCredit) Eligibility(ctx context.Context) (Snapshot, error) {
	snapshot := Snapshot{HasTopUpBalance: true, WorkingGroupHasBudget: true}

	price, err := c.chain.MembershipPrice(ctx)
	if err != nil {
		return snapshot, fmt.Errorf("querying membership price: %w", err)
	}
	fee, err := c.chain.GrantFee(ctx)
	if err != nil {
		return snapshot, fmt.Errorf("estimating grant fee: %w", err)
	}
	balance, err := c.chain.SignerFreeBalance(ctx)
	if err != nil {
		return snapshot, fmt.Errorf("querying signer balance: %w", err)
	}

	required := new(big.Int).Add(price, fee)
	required.Add(required, c.credit)
	snapshot.HasInvitesOrCredit = balance.Cmp(required) >= 0

	return snapshot, nil
}

func (c *giftWithCredit) TopUp(ctx context.Context, account string) (bool, error) {
	// the credit travels with the gift itself
	return false, nil
}
