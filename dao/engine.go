package dao

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ndau/simple-dao/tracking"
)

// Params are fixed when the organization is created.
type Params struct {
	Members          []common.Address
	TotalSupply      Amount
	VotingPeriod     uint64
	MinVotesRequired uint32
}

func (p Params) validate() error {
	if len(p.Members) == 0 {
		return ErrEmptyMembers
	}
	if p.VotingPeriod == 0 || p.VotingPeriod > MaxHeight {
		return ErrInvalidVotingPeriod
	}
	if p.TotalSupply > MaxAmount {
		return ErrSupplyOverflow
	}
	return nil
}

// Engine owns the ledger, member registry and proposals of one organization.
// Operations are serialized; each either commits fully or leaves the state
// untouched. The only exception is the expiry a vote discovers, which is
// committed even though the vote fails.
type Engine struct {
	mu sync.RWMutex

	params    Params
	members   *Registry
	ledger    *Ledger
	proposals *ProposalStore

	journal  Journal
	notifier Notifier
	log      *zap.SugaredLogger
}

type Option func(*Engine)

// WithJournal sets the durable store changes are committed to.
func WithJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithNotifier sets the receiver of committed state changes.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(e *Engine) { e.log = log }
}

func newEngine(opts []Option) *Engine {
	e := &Engine{
		journal:  noopJournal{},
		notifier: noopNotifier{},
		log:      zap.NewNop().Sugar(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// New creates an organization, splits the initial supply across its members
// and commits the genesis state.
func New(ctx context.Context, p Params, opts ...Option) (*Engine, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	members, err := NewRegistry(p.Members)
	if err != nil {
		return nil, err
	}
	ledger, err := NewLedger(members.Members(), p.TotalSupply)
	if err != nil {
		return nil, err
	}

	e := newEngine(opts)
	e.params = p
	e.params.Members = members.Members()
	e.members = members
	e.ledger = ledger
	e.proposals = NewProposalStore()

	supply := ledger.TotalSupply()
	params := e.params
	if err := e.commit(ctx, &Change{
		Params:      &params,
		Members:     members.Members(),
		Balances:    ledger.snapshot(),
		TotalSupply: &supply,
		NextID:      e.proposals.NextID(),
	}); err != nil {
		return nil, err
	}

	e.log.Infof("%s | Organization initialized with %d members, supply %d, unassigned %d",
		tracking.From(ctx), members.Len(), supply, ledger.Unassigned())
	e.notifier.Notify(ctx, OrganizationInitialized{
		Members:     members.Members(),
		TotalSupply: supply,
	})
	return e, nil
}

// Restore rebuilds an engine from durable state. Nothing is committed or
// announced.
func Restore(s *Snapshot, opts ...Option) (*Engine, error) {
	if s == nil {
		return nil, errors.New("nil snapshot")
	}
	p := s.Params
	if len(p.Members) == 0 {
		p.Members = s.Members
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	members, err := NewRegistry(p.Members)
	if err != nil {
		return nil, err
	}

	e := newEngine(opts)
	e.params = p
	e.params.Members = members.Members()
	e.members = members
	e.ledger = restoreLedger(s.Balances, s.TotalSupply)
	e.proposals = restoreProposalStore(s.Proposals, s.NextID)
	return e, nil
}

func (e *Engine) commit(ctx context.Context, c *Change) error {
	if err := e.journal.Commit(ctx, c); err != nil {
		return errors.Wrap(err, "failed committing change to the journal")
	}
	return nil
}

// DistributeTokens credits amount to a member and grows the supply by the
// same amount. Who may call it is decided by the transport.
func (e *Engine) DistributeTokens(ctx context.Context, recipient common.Address, amount Amount) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.members.IsMember(recipient) {
		return ErrNotMember
	}
	balance, supply, err := e.ledger.credit(recipient, amount)
	if err != nil {
		return err
	}

	if err := e.commit(ctx, &Change{
		Balances:    map[common.Address]Amount{recipient: balance},
		TotalSupply: &supply,
		NextID:      e.proposals.NextID(),
	}); err != nil {
		return err
	}
	e.ledger.set(recipient, balance, supply)

	e.log.Infof("%s | Distributed %d to %s, supply is now %d", tracking.From(ctx), amount, recipient.Hex(), supply)
	e.notifier.Notify(ctx, TokensDistributed{
		Recipient:   recipient,
		Amount:      amount,
		TotalSupply: supply,
	})
	return nil
}

// CreateProposal stores a new Active proposal whose deadline is now plus the
// voting period. A rejected request does not consume an id; neither does a
// height whose deadline would pass MaxHeight.
func (e *Engine) CreateProposal(ctx context.Context, author common.Address, req NewProposal, now uint64) (uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.proposals.build(author, req, now, e.params.VotingPeriod)
	if err != nil {
		return 0, err
	}

	if err := e.commit(ctx, &Change{
		Proposal: p,
		NextID:   p.ID + 1,
	}); err != nil {
		return 0, err
	}
	e.proposals.put(p)

	e.log.Infof("%s | Proposal %d (%s) created by %s, deadline %d",
		tracking.From(ctx), p.ID, p.Kind, author.Hex(), p.Deadline)
	e.notifier.Notify(ctx, ProposalCreated{
		ProposalID: p.ID,
		Author:     author,
		Name:       p.Name,
	})
	return p.ID, nil
}

// GetProposal returns a copy of the proposal as seen at height now: an Active
// proposal past its deadline is reported Expired. Nothing is written.
func (e *Engine) GetProposal(id uint32, now uint64) (*Proposal, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.proposals.View(id, now)
}

// ActiveProposals lists, in ascending order, the proposals still open for
// voting at height now.
func (e *Engine) ActiveProposals(now uint64) []uint32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.proposals.ListActive(now)
}

func (e *Engine) Balance(member common.Address) Amount {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.BalanceOf(member)
}

func (e *Engine) Members() []common.Address {
	return e.members.Members()
}

func (e *Engine) IsMember(identity common.Address) bool {
	return e.members.IsMember(identity)
}

func (e *Engine) TotalSupply() Amount {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.TotalSupply()
}

func (e *Engine) Params() Params {
	p := e.params
	p.Members = e.members.Members()
	return p
}

// Snapshot copies the whole state.
func (e *Engine) Snapshot() *Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return &Snapshot{
		Params:      e.Params(),
		Members:     e.members.Members(),
		Balances:    e.ledger.snapshot(),
		TotalSupply: e.ledger.TotalSupply(),
		Proposals:   e.proposals.all(),
		NextID:      e.proposals.NextID(),
	}
}
