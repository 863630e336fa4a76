package dao

import (
	"fmt"
	"math"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Amount is a token quantity.
type Amount = uint64

// Supplies and heights are stored in signed 64-bit columns.
const (
	MaxAmount Amount = math.MaxInt64
	MaxHeight uint64 = math.MaxInt64
)

type ProposalKind uint8

const (
	MultipleChoice ProposalKind = iota
	MoneyRequest
)

func (k ProposalKind) String() string {
	switch k {
	case MultipleChoice:
		return "multiple_choice"
	case MoneyRequest:
		return "money_request"
	default:
		return "unknown"
	}
}

// ParseProposalKind accepts the names produced by String.
func ParseProposalKind(s string) (ProposalKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "multiple_choice", "multiplechoice":
		return MultipleChoice, nil
	case "money_request", "moneyrequest":
		return MoneyRequest, nil
	}
	return 0, fmt.Errorf("unknown proposal kind %q", s)
}

// ProposalStatus is the lifecycle state. Active is the only non-terminal state.
type ProposalStatus uint8

const (
	Active ProposalStatus = iota
	Passed
	Rejected
	Expired
)

func (s ProposalStatus) String() string {
	switch s {
	case Active:
		return "active"
	case Passed:
		return "passed"
	case Rejected:
		return "rejected"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// ParseProposalStatus accepts the names produced by String.
func ParseProposalStatus(s string) (ProposalStatus, error) {
	switch s {
	case "active":
		return Active, nil
	case "passed":
		return Passed, nil
	case "rejected":
		return Rejected, nil
	case "expired":
		return Expired, nil
	}
	return 0, fmt.Errorf("unknown proposal status %q", s)
}

// Terminal reports whether no further transition is possible.
func (s ProposalStatus) Terminal() bool {
	return s != Active
}

type Proposal struct {
	ID          uint32
	Name        string
	Description string
	Author      common.Address
	Kind        ProposalKind
	Options     []string

	// Amount is only set for MoneyRequest proposals.
	Amount *Amount

	Votes     []uint32
	Voters    []common.Address
	Status    ProposalStatus
	CreatedAt uint64
	Deadline  uint64
}

// StatusAt is the status the proposal has at block height now. It does not
// modify the proposal.
func (p *Proposal) StatusAt(now uint64) ProposalStatus {
	if p.Status == Active && now > p.Deadline {
		return Expired
	}
	return p.Status
}

func (p *Proposal) HasVoted(member common.Address) bool {
	for _, v := range p.Voters {
		if v == member {
			return true
		}
	}
	return false
}

// TotalVotes is the number of votes cast across all options.
func (p *Proposal) TotalVotes() uint32 {
	var total uint32
	for _, n := range p.Votes {
		total += n
	}
	return total
}

// Clone returns a deep copy so callers never share slices with the store.
func (p *Proposal) Clone() *Proposal {
	c := *p
	c.Options = append([]string(nil), p.Options...)
	c.Votes = append([]uint32(nil), p.Votes...)
	c.Voters = append([]common.Address(nil), p.Voters...)
	if p.Amount != nil {
		a := *p.Amount
		c.Amount = &a
	}
	return &c
}
