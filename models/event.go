package models

// ProposalData is the request to create a proposal.
type ProposalData struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Kind        string   `json:"kind"`
	Options     []string `json:"options"`
	Amount      *uint64  `json:"amount,omitempty"`
}

// VoteData is a vote for one option of a proposal.
type VoteData struct {
	ProposalID uint32 `json:"proposal_id"`
	Option     uint32 `json:"option"`
}

// DistributionData credits tokens to a member.
type DistributionData struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
}
