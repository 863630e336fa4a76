package dao

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Change is everything one operation writes. The engine commits it to the
// Journal before applying it in memory.
type Change struct {
	// Params is set only by the initial commit of a new organization.
	Params *Params

	Members     []common.Address
	Balances    map[common.Address]Amount
	TotalSupply *Amount

	Proposal *Proposal
	NextID   uint32
}

// Journal is the durable store behind the engine. Commit must apply the
// change atomically or not at all.
type Journal interface {
	Commit(ctx context.Context, c *Change) error
}

type noopJournal struct{}

func (noopJournal) Commit(context.Context, *Change) error { return nil }

// Snapshot is the full engine state as read back from a Journal.
type Snapshot struct {
	Params      Params
	Members     []common.Address
	Balances    map[common.Address]Amount
	TotalSupply Amount
	Proposals   []*Proposal
	NextID      uint32
}
