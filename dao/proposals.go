package dao

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// ProposalStore keeps every proposal ever created, keyed by id. Ids start at
// 1 and are never reused.
type ProposalStore struct {
	proposals map[uint32]*Proposal
	nextID    uint32
}

func NewProposalStore() *ProposalStore {
	return &ProposalStore{
		proposals: map[uint32]*Proposal{},
		nextID:    1,
	}
}

func restoreProposalStore(proposals []*Proposal, nextID uint32) *ProposalStore {
	s := NewProposalStore()
	for _, p := range proposals {
		s.proposals[p.ID] = p.Clone()
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
	}
	if nextID > s.nextID {
		s.nextID = nextID
	}
	return s
}

// NewProposal is the creation request.
type NewProposal struct {
	Name        string
	Description string
	Kind        ProposalKind
	Options     []string
	Amount      *Amount
}

func (n NewProposal) validate() error {
	switch n.Kind {
	case MultipleChoice:
		if len(n.Options) == 0 {
			return ErrInvalidProposalType
		}
	case MoneyRequest:
		if n.Amount == nil || len(n.Options) != 1 {
			return ErrInvalidProposalType
		}
	default:
		return ErrInvalidProposalType
	}
	return nil
}

// build validates the request and returns the proposal that create would
// store, without allocating the id.
func (s *ProposalStore) build(author common.Address, req NewProposal, now, votingPeriod uint64) (*Proposal, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if votingPeriod > MaxHeight || now > MaxHeight-votingPeriod {
		return nil, ErrDeadlineOverflow
	}

	p := &Proposal{
		ID:          s.nextID,
		Name:        req.Name,
		Description: req.Description,
		Author:      author,
		Kind:        req.Kind,
		Options:     append([]string(nil), req.Options...),
		Votes:       make([]uint32, len(req.Options)),
		Status:      Active,
		CreatedAt:   now,
		Deadline:    now + votingPeriod,
	}
	if req.Kind == MoneyRequest {
		a := *req.Amount
		p.Amount = &a
	}
	return p, nil
}

// NextID is the id the next created proposal will receive.
func (s *ProposalStore) NextID() uint32 {
	return s.nextID
}

func (s *ProposalStore) put(p *Proposal) {
	s.proposals[p.ID] = p
	if p.ID >= s.nextID {
		s.nextID = p.ID + 1
	}
}

// get returns the stored proposal itself; callers must not leak it.
func (s *ProposalStore) get(id uint32) (*Proposal, error) {
	p, ok := s.proposals[id]
	if !ok {
		return nil, ErrProposalNotFound
	}
	return p, nil
}

// View returns a copy of the proposal with the status it has at height now.
func (s *ProposalStore) View(id uint32, now uint64) (*Proposal, error) {
	p, err := s.get(id)
	if err != nil {
		return nil, err
	}
	c := p.Clone()
	c.Status = p.StatusAt(now)
	return c, nil
}

// ListActive returns, in ascending order, the ids whose stored status is
// Active and whose deadline has not passed at height now.
func (s *ProposalStore) ListActive(now uint64) []uint32 {
	ids := []uint32{}
	for id, p := range s.proposals {
		if p.Status == Active && now <= p.Deadline {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *ProposalStore) all() []*Proposal {
	out := make([]*Proposal, 0, len(s.proposals))
	for _, p := range s.proposals {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
