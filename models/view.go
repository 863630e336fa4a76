package models

// ProposalView is a proposal as returned by the query API.
type ProposalView struct {
	ID          uint32   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Author      string   `json:"author"`
	Kind        string   `json:"kind"`
	Options     []string `json:"options"`
	Amount      *uint64  `json:"amount,omitempty"`
	Votes       []uint32 `json:"votes"`
	Voters      []string `json:"voters"`
	Status      string   `json:"status"`
	CreatedAt   uint64   `json:"created_at"`
	Deadline    uint64   `json:"deadline"`
}

// MemberView answers a membership and balance lookup.
type MemberView struct {
	Address string `json:"address"`
	Member  bool   `json:"member"`
	Balance uint64 `json:"balance"`
}

// ErrorView is the body of every failed request.
type ErrorView struct {
	Code    uint   `json:"code"`
	Message string `json:"message"`
}
