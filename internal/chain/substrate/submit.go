package substrate

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/centrifuge/go-substrate-rpc-client/v4/registry"
	"github.com/centrifuge/go-substrate-rpc-client/v4/registry/parser"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/labstack/gommon/log"

	"member-faucet/internal/chain"
	"member-faucet/pkg/ss58"
)

// submissions that see no terminal status within this span count as a
// finality timeout
const submitTimeout = 5 * time.Minute

const (
	eventExtrinsicSuccess = "System.ExtrinsicSuccess"
	eventExtrinsicFailed  = "System.ExtrinsicFailed"
	eventMemberInvited    = "Members.MemberInvited"
)

// inviteMembershipParameters is the SCALE layout of the invite_member call
// arguments.
type inviteMembershipParameters struct {
	InvitingMemberID  types.U64
	RootAccount       types.AccountID
	ControllerAccount types.AccountID
	Handle            types.OptionBytes
	Metadata          types.Bytes
}

func (n *Node) InviteMember(ctx context.Context, member chain.NewMember) (*chain.MemberGrant, error) {
	_, accountID, err := ss58.Decode(member.Account)
	if err != nil {
		return nil, fmt.Errorf("decoding account address: %w", err)
	}

	root, err := types.NewAccountID(accountID)
	if err != nil {
		return nil, fmt.Errorf("building account id: %w", err)
	}

	params := inviteMembershipParameters{
		InvitingMemberID:  types.NewU64(n.invitingMemberID),
		RootAccount:       *root,
		ControllerAccount: *root,
		Handle:            types.NewOptionBytes(types.NewBytes([]byte(member.Handle))),
		Metadata:          types.NewBytes(encodeMembershipMetadata(member)),
	}

	call, err := types.NewCall(n.meta, "Members.invite_member", params)
	if err != nil {
		return nil, fmt.Errorf("building invite call: %w", err)
	}

	included, err := n.submitAndWait(ctx, call)
	if err != nil {
		return nil, err
	}

	memberID, ok := memberIDFromEvents(included.events)
	if !ok {
		return nil, fmt.Errorf("member invited event not found in block %s", included.blockHash.Hex())
	}
	log.Infof("created member %d handle %q at block %s", memberID, member.Handle, included.blockHash.Hex())

	grant := &chain.MemberGrant{MemberID: memberID, Block: chain.BlockRef{Hash: included.blockHash.Hex()}}

	// best effort: the grant already happened, a failed height lookup
	// must not fail the request
	header, err := n.api.RPC.Chain.GetHeader(included.blockHash)
	if err != nil {
		log.Errorf("fetching inclusion block header: %+v", err)
		return grant, nil
	}
	grant.Block.Known = true
	grant.Block.Number = uint32(header.Number)
	return grant, nil
}

func (n *Node) TransferBalance(ctx context.Context, account string, amount *big.Int) error {
	_, accountID, err := ss58.Decode(account)
	if err != nil {
		return fmt.Errorf("decoding account address: %w", err)
	}

	dest, err := types.NewMultiAddressFromAccountID(accountID)
	if err != nil {
		return fmt.Errorf("building destination address: %w", err)
	}

	call, err := types.NewCall(n.meta, "Balances.transfer_keep_alive", dest, types.NewUCompact(amount))
	if err != nil {
		return fmt.Errorf("building transfer call: %w", err)
	}

	_, err = n.submitAndWait(ctx, call)
	return err
}

func (n *Node) GrantFee(ctx context.Context) (*big.Int, error) {
	params := inviteMembershipParameters{
		InvitingMemberID: types.NewU64(n.invitingMemberID),
		Handle:           types.NewOptionBytesEmpty(),
		Metadata:         types.NewBytes(nil),
	}
	call, err := types.NewCall(n.meta, "Members.invite_member", params)
	if err != nil {
		return nil, fmt.Errorf("building probe call: %w", err)
	}

	ext := types.NewExtrinsic(call)
	if err := n.sign(&ext); err != nil {
		return nil, err
	}

	head, err := n.api.RPC.Chain.GetFinalizedHead()
	if err != nil {
		return nil, fmt.Errorf("fetching finalized head: %w", err)
	}

	extHex, err := codec.EncodeToHex(ext)
	if err != nil {
		return nil, fmt.Errorf("encoding probe extrinsic: %w", err)
	}

	var info runtimeDispatchInfo
	if err := n.api.Client.Call(&info, "payment_queryInfo", extHex, head.Hex()); err != nil {
		return nil, fmt.Errorf("querying payment info: %w", err)
	}
	return info.PartialFee, nil
}

// runtimeDispatchInfo carries the payment_queryInfo response; only the fee
// is of interest here.
type runtimeDispatchInfo struct {
	PartialFee *big.Int `json:"partialFee"`
}

type inclusion struct {
	blockHash types.Hash
	events    []*parser.Event
}

// submitAndWait signs and submits call under the faucet key and drives the
// status machine to a terminal outcome. The caller serializes submissions;
// the nonce is read fresh while the lock is held.
func (n *Node) submitAndWait(ctx context.Context, call types.Call) (*inclusion, error) {
	ext := types.NewExtrinsic(call)
	if err := n.sign(&ext); err != nil {
		return nil, err
	}

	sub, err := n.api.RPC.Author.SubmitAndWatchExtrinsic(ext)
	if err != nil {
		return nil, fmt.Errorf("submitting extrinsic: %w", err)
	}
	defer sub.Unsubscribe()

	tracker := chain.NewStatusTracker()
	timeout := time.NewTimer(submitTimeout)
	defer timeout.Stop()

	for {
		select {
		case status := <-sub.Chan():
			next, ok := submitState(status)
			if !ok {
				// Ready/Broadcast and other non-terminal statuses
				continue
			}
			if err := tracker.Advance(next); err != nil {
				return nil, fmt.Errorf("tracking submission: %w", err)
			}

			switch {
			case next == chain.StateInBlock:
				return n.inspectInclusion(ext, status.AsInBlock)
			case next == chain.StateFinalized:
				return n.inspectInclusion(ext, status.AsFinalized)
			case next.Failed():
				log.Errorf("submission failed with status %s", next)
				return nil, &chain.TransactionError{Status: next.String()}
			}

		case err := <-sub.Err():
			return nil, fmt.Errorf("watching extrinsic: %w", err)

		case <-timeout.C:
			return nil, &chain.TransactionError{Status: chain.StateFinalityTimeout.String()}
		}
	}
}

func (n *Node) sign(ext *types.Extrinsic) error {
	rv, err := n.api.RPC.State.GetRuntimeVersionLatest()
	if err != nil {
		return fmt.Errorf("fetching runtime version: %w", err)
	}

	key, err := types.CreateStorageKey(n.meta, palletSystem, "Account", n.signer.PublicKey)
	if err != nil {
		return fmt.Errorf("building signer storage key: %w", err)
	}
	var info types.AccountInfo
	if _, err := n.api.RPC.State.GetStorageLatest(key, &info); err != nil {
		return fmt.Errorf("querying signer nonce: %w", err)
	}

	options := types.SignatureOptions{
		BlockHash:          n.genesisHash,
		Era:                types.ExtrinsicEra{IsImmortalEra: true},
		GenesisHash:        n.genesisHash,
		Nonce:              types.NewUCompactFromUInt(uint64(info.Nonce)),
		SpecVersion:        rv.SpecVersion,
		Tip:                types.NewUCompactFromUInt(0),
		TransactionVersion: rv.TransactionVersion,
	}

	if err := ext.Sign(n.signer, options); err != nil {
		return fmt.Errorf("signing extrinsic: %w", err)
	}
	return nil
}

// inspectInclusion finds the extrinsic in its inclusion block and resolves
// the ExtrinsicSuccess/ExtrinsicFailed sub-outcome.
func (n *Node) inspectInclusion(ext types.Extrinsic, blockHash types.Hash) (*inclusion, error) {
	index, err := n.extrinsicIndex(ext, blockHash)
	if err != nil {
		return nil, err
	}

	events, err := n.events.GetEvents(blockHash)
	if err != nil {
		return nil, fmt.Errorf("fetching block events: %w", err)
	}

	own := make([]*parser.Event, 0, len(events))
	for _, event := range events {
		if event.Phase == nil || !event.Phase.IsApplyExtrinsic {
			continue
		}
		if uint32(event.Phase.AsApplyExtrinsic) != index {
			continue
		}
		own = append(own, event)
	}

	for _, event := range own {
		switch string(event.Name) {
		case eventExtrinsicSuccess:
			return &inclusion{blockHash: blockHash, events: own}, nil
		case eventExtrinsicFailed:
			name := dispatchErrorName(event.Fields)
			log.Errorf("transaction processing failed: %s", name)
			return nil, &chain.ProcessingError{Name: name}
		}
	}
	return nil, fmt.Errorf("no extrinsic outcome event in block %s", blockHash.Hex())
}

func (n *Node) extrinsicIndex(ext types.Extrinsic, blockHash types.Hash) (uint32, error) {
	encoded, err := codec.EncodeToHex(ext)
	if err != nil {
		return 0, fmt.Errorf("encoding extrinsic: %w", err)
	}

	block, err := n.api.RPC.Chain.GetBlock(blockHash)
	if err != nil {
		return 0, fmt.Errorf("fetching inclusion block: %w", err)
	}

	for i, blockExt := range block.Block.Extrinsics {
		candidate, err := codec.EncodeToHex(blockExt)
		if err != nil {
			continue
		}
		if candidate == encoded {
			return uint32(i), nil
		}
	}
	return 0, fmt.Errorf("extrinsic not found in block %s", blockHash.Hex())
}

func submitState(status types.ExtrinsicStatus) (chain.SubmitState, bool) {
	switch {
	case status.IsInBlock:
		return chain.StateInBlock, true
	case status.IsFinalized:
		return chain.StateFinalized, true
	case status.IsDropped:
		return chain.StateDropped, true
	case status.IsFinalityTimeout:
		return chain.StateFinalityTimeout, true
	case status.IsInvalid:
		return chain.StateInvalid, true
	case status.IsUsurped:
		return chain.StateUsurped, true
	default:
		return chain.StateSubmitted, false
	}
}

func memberIDFromEvents(events []*parser.Event) (uint64, bool) {
	for _, event := range events {
		if string(event.Name) != eventMemberInvited {
			continue
		}
		for _, field := range event.Fields {
			if id, ok := fieldAsUint64(field.Value); ok {
				return id, true
			}
		}
	}
	return 0, false
}

func fieldAsUint64(value interface{}) (uint64, bool) {
	switch v := value.(type) {
	case types.U64:
		return uint64(v), true
	case uint64:
		return v, true
	case types.U32:
		return uint64(v), true
	default:
		return 0, false
	}
}

// dispatchErrorName walks the decoded ExtrinsicFailed fields for the
// module error variant name; falls back to UnknownError.
func dispatchErrorName(fields registry.DecodedFields) string {
	for _, field := range fields {
		if name, ok := variantName(field.Value, field.Name); ok {
			return name
		}
	}
	return "UnknownError"
}

func variantName(value interface{}, fieldName string) (string, bool) {
	switch v := value.(type) {
	case registry.DecodedFields:
		for _, inner := range v {
			if name, ok := variantName(inner.Value, inner.Name); ok {
				return name, ok
			}
		}
	case string:
		if v != "" && strings.Contains(strings.ToLower(fieldName), "error") {
			return v, true
		}
	}
	return "", false
}
