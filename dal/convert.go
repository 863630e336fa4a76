package dal

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/ndau/simple-dao/dao"
	"github.com/ndau/simple-dao/models"
)

func toAccounts(c *dao.Change) []models.Account {
	accounts := []models.Account{}
	seen := map[common.Address]bool{}
	for i, m := range c.Members {
		accounts = append(accounts, models.Account{
			Address:  m.Hex(),
			Position: i,
			Balance:  c.Balances[m],
		})
		seen[m] = true
	}
	for m, b := range c.Balances {
		if seen[m] {
			continue
		}
		accounts = append(accounts, models.Account{Address: m.Hex(), Balance: b})
	}
	return accounts
}

func toProposalRow(p *dao.Proposal) models.Proposal {
	voters := make([]string, 0, len(p.Voters))
	for _, v := range p.Voters {
		voters = append(voters, v.Hex())
	}
	row := models.Proposal{
		ProposalID:     p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Author:         p.Author.Hex(),
		Kind:           p.Kind.String(),
		Options:        append([]string{}, p.Options...),
		Votes:          append([]uint32{}, p.Votes...),
		Voters:         voters,
		Status:         p.Status.String(),
		CreatedHeight:  p.CreatedAt,
		DeadlineHeight: p.Deadline,
	}
	if p.Amount != nil {
		a := *p.Amount
		row.Amount = &a
	}
	return row
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.Errorf("invalid address '%s'", s)
	}
	return common.HexToAddress(s), nil
}

func fromProposalRow(row models.Proposal) (*dao.Proposal, error) {
	kind, err := dao.ParseProposalKind(row.Kind)
	if err != nil {
		return nil, errors.Wrapf(err, "proposal %d", row.ProposalID)
	}
	status, err := dao.ParseProposalStatus(row.Status)
	if err != nil {
		return nil, errors.Wrapf(err, "proposal %d", row.ProposalID)
	}
	author, err := parseAddress(row.Author)
	if err != nil {
		return nil, errors.Wrapf(err, "proposal %d author", row.ProposalID)
	}
	if len(row.Votes) != len(row.Options) {
		return nil, errors.Errorf("proposal %d has %d vote counts for %d options", row.ProposalID, len(row.Votes), len(row.Options))
	}

	p := &dao.Proposal{
		ID:          row.ProposalID,
		Name:        row.Name,
		Description: row.Description,
		Author:      author,
		Kind:        kind,
		Options:     append([]string(nil), row.Options...),
		Votes:       append([]uint32(nil), row.Votes...),
		Status:      status,
		CreatedAt:   row.CreatedHeight,
		Deadline:    row.DeadlineHeight,
	}
	for _, v := range row.Voters {
		voter, err := parseAddress(v)
		if err != nil {
			return nil, errors.Wrapf(err, "proposal %d voter", row.ProposalID)
		}
		p.Voters = append(p.Voters, voter)
	}
	if row.Amount != nil {
		a := *row.Amount
		p.Amount = &a
	}
	return p, nil
}

func toSnapshot(org models.Organization, accounts []models.Account, rows []models.Proposal) (*dao.Snapshot, error) {
	s := &dao.Snapshot{
		Balances:    map[common.Address]dao.Amount{},
		TotalSupply: org.TotalSupply,
		NextID:      org.NextProposalID,
	}
	for _, a := range accounts {
		m, err := parseAddress(a.Address)
		if err != nil {
			return nil, errors.Wrap(err, "account")
		}
		s.Members = append(s.Members, m)
		s.Balances[m] = a.Balance
	}
	s.Params = dao.Params{
		Members:          append([]common.Address(nil), s.Members...),
		TotalSupply:      org.InitialSupply,
		VotingPeriod:     org.VotingPeriod,
		MinVotesRequired: org.MinVotesRequired,
	}
	for _, row := range rows {
		p, err := fromProposalRow(row)
		if err != nil {
			return nil, err
		}
		s.Proposals = append(s.Proposals, p)
	}
	return s, nil
}
