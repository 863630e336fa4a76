package dao

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

const (
	EventOrganizationInitialized = "organization.initialized"
	EventProposalCreated         = "proposal.created"
	EventVoteCast                = "vote.cast"
	EventTokensDistributed       = "tokens.distributed"
)

// Event is a state change announced after it has been committed.
type Event interface {
	EventType() string
}

type OrganizationInitialized struct {
	Members     []common.Address `json:"members"`
	TotalSupply Amount           `json:"total_supply"`
}

type ProposalCreated struct {
	ProposalID uint32         `json:"proposal_id"`
	Author     common.Address `json:"author"`
	Name       string         `json:"name"`
}

type VoteCast struct {
	ProposalID uint32         `json:"proposal_id"`
	Voter      common.Address `json:"voter"`
	Option     uint32         `json:"option"`

	// Status is the proposal status after the vote was tallied.
	Status string `json:"status"`
}

type TokensDistributed struct {
	Recipient   common.Address `json:"recipient"`
	Amount      Amount         `json:"amount"`
	TotalSupply Amount         `json:"total_supply"`
}

func (OrganizationInitialized) EventType() string { return EventOrganizationInitialized }
func (ProposalCreated) EventType() string         { return EventProposalCreated }
func (VoteCast) EventType() string                { return EventVoteCast }
func (TokensDistributed) EventType() string       { return EventTokensDistributed }

// Notifier receives events. Delivery is fire-and-forget: Notify must not
// block and has no way to fail the operation that produced the event.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// Notifiers fans an event out to every notifier in order.
type Notifiers []Notifier

func (n Notifiers) Notify(ctx context.Context, e Event) {
	for _, x := range n {
		x.Notify(ctx, e)
	}
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Event) {}
