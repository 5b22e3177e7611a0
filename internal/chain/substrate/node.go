// Package substrate implements chain.Client against a substrate node over
// the gsrpc websocket client.
package substrate

import (
	"context"
	"fmt"
	"math/big"

	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4"
	"github.com/centrifuge/go-substrate-rpc-client/v4/registry/retriever"
	"github.com/centrifuge/go-substrate-rpc-client/v4/registry/state"
	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"golang.org/x/crypto/blake2b"

	"member-faucet/pkg/ss58"
)

const (
	palletMembers      = "Members"
	palletSystem       = "System"
	palletWorkingGroup = "MembershipWorkingGroup"
)

type Node struct {
	api              *gsrpc.SubstrateAPI
	meta             *types.Metadata
	events           retriever.EventRetriever
	signer           signature.KeyringPair
	genesisHash      types.Hash
	chainName        string
	invitingMemberID uint64
}

// Connect dials the node, loads metadata and derives the signing pair from
// seed. networkPrefix is the chain's SS58 address prefix.
func Connect(endpoint, seed string, networkPrefix uint16, invitingMemberID uint64) (*Node, error) {
	api, err := gsrpc.NewSubstrateAPI(endpoint)
	if err != nil {
		return nil, fmt.Errorf("dialling node: %w", err)
	}

	meta, err := api.RPC.State.GetMetadataLatest()
	if err != nil {
		return nil, fmt.Errorf("fetching metadata: %w", err)
	}

	genesisHash, err := api.RPC.Chain.GetBlockHash(0)
	if err != nil {
		return nil, fmt.Errorf("fetching genesis hash: %w", err)
	}

	chainName, err := api.RPC.System.Chain()
	if err != nil {
		return nil, fmt.Errorf("fetching chain name: %w", err)
	}

	signer, err := signature.KeyringPairFromSecret(seed, networkPrefix)
	if err != nil {
		return nil, fmt.Errorf("deriving signing pair: %w", err)
	}

	events, err := retriever.NewDefaultEventRetriever(state.NewEventProvider(api.RPC.State), api.RPC.State)
	if err != nil {
		return nil, fmt.Errorf("creating event retriever: %w", err)
	}

	return &Node{
		api:              api,
		meta:             meta,
		events:           events,
		signer:           signer,
		genesisHash:      genesisHash,
		chainName:        string(chainName),
		invitingMemberID: invitingMemberID,
	}, nil
}

// ChainName reports the connected chain's name, read once at connect.
func (n *Node) ChainName(ctx context.Context) (string, error) {
	return n.chainName, nil
}

func (n *Node) IsSyncing(ctx context.Context) (bool, error) {
	health, err := n.api.RPC.System.Health()
	if err != nil {
		return false, fmt.Errorf("querying node health: %w", err)
	}
	return bool(health.IsSyncing), nil
}

func (n *Node) IsFreshAccount(ctx context.Context, account string) (bool, error) {
	info, err := n.accountInfo(account)
	if err != nil {
		return false, err
	}
	return info.Nonce == 0 && info.Data.Free.Sign() == 0, nil
}

func (n *Node) HandleRegistered(ctx context.Context, handle string) (bool, error) {
	hash := blake2b.Sum256([]byte(handle))
	key, err := types.CreateStorageKey(n.meta, palletMembers, "MemberIdByHandleHash", hash[:])
	if err != nil {
		return false, fmt.Errorf("building handle storage key: %w", err)
	}

	var memberID types.U64
	ok, err := n.api.RPC.State.GetStorageLatest(key, &memberID)
	if err != nil {
		return false, fmt.Errorf("querying handle hash: %w", err)
	}
	return ok, nil
}

func (n *Node) InviterInvites(ctx context.Context) (uint32, error) {
	encodedID, err := codec.Encode(types.NewU64(n.invitingMemberID))
	if err != nil {
		return 0, fmt.Errorf("encoding member id: %w", err)
	}

	key, err := types.CreateStorageKey(n.meta, palletMembers, "MembershipById", encodedID)
	if err != nil {
		return 0, fmt.Errorf("building membership storage key: %w", err)
	}

	var membership membershipObject
	ok, err := n.api.RPC.State.GetStorageLatest(key, &membership)
	if err != nil {
		return 0, fmt.Errorf("querying membership: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("inviting member %d not found", n.invitingMemberID)
	}
	return uint32(membership.Invites), nil
}

func (n *Node) SignerFreeBalance(ctx context.Context) (*big.Int, error) {
	key, err := types.CreateStorageKey(n.meta, palletSystem, "Account", n.signer.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("building account storage key: %w", err)
	}

	var info types.AccountInfo
	if _, err := n.api.RPC.State.GetStorageLatest(key, &info); err != nil {
		return nil, fmt.Errorf("querying signer account: %w", err)
	}
	return info.Data.Free.Int, nil
}

func (n *Node) WorkingGroupBudget(ctx context.Context) (*big.Int, error) {
	key, err := types.CreateStorageKey(n.meta, palletWorkingGroup, "Budget")
	if err != nil {
		return nil, fmt.Errorf("building budget storage key: %w", err)
	}

	var budget types.U128
	if _, err := n.api.RPC.State.GetStorageLatest(key, &budget); err != nil {
		return nil, fmt.Errorf("querying working group budget: %w", err)
	}
	return budget.Int, nil
}

func (n *Node) MembershipPrice(ctx context.Context) (*big.Int, error) {
	value, err := n.constant(palletMembers, "DefaultInitialInvitationBalance")
	if err != nil {
		return nil, err
	}

	var price types.U128
	if err := codec.Decode(value, &price); err != nil {
		return nil, fmt.Errorf("decoding invitation balance: %w", err)
	}
	return price.Int, nil
}

func (n *Node) accountInfo(account string) (*types.AccountInfo, error) {
	_, accountID, err := ss58.Decode(account)
	if err != nil {
		return nil, fmt.Errorf("decoding account address: %w", err)
	}

	key, err := types.CreateStorageKey(n.meta, palletSystem, "Account", accountID)
	if err != nil {
		return nil, fmt.Errorf("building account storage key: %w", err)
	}

	var info types.AccountInfo
	if _, err := n.api.RPC.State.GetStorageLatest(key, &info); err != nil {
		return nil, fmt.Errorf("querying account: %w", err)
	}
	return &info, nil
}

// constant reads a pallet constant out of the metadata.
func (n *Node) constant(pallet, name string) ([]byte, error) {
	for _, p := range n.meta.AsMetadataV14.Pallets {
		if string(p.Name) != pallet {
			continue
		}
		for _, c := range p.Constants {
			if string(c.Name) == name {
				return c.Value, nil
			}
		}
	}
	return nil, fmt.Errorf("constant %s.%s not found in metadata", pallet, name)
}

// membershipObject mirrors the chain's membership storage value; only the
// invite counter is of interest here.
type membershipObject struct {
	HandleHash        types.Bytes
	RootAccount       types.AccountID
	ControllerAccount types.AccountID
	Verified          types.Bool
	Invites           types.U32
}
