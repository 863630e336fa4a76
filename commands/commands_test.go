package commands

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/ndau/simple-dao/chain"
	"github.com/ndau/simple-dao/dao"
	"github.com/ndau/simple-dao/models"
)

func account(b byte) common.Address {
	return common.BytesToAddress(bytes.Repeat([]byte{b}, common.AddressLength))
}

var (
	member1 = account(1)
	member2 = account(2)
	org     = account(9)
)

func newDispatcher(t *testing.T, clock *chain.ManualClock) *Dispatcher {
	t.Helper()
	e, err := dao.New(context.Background(), dao.Params{
		Members:          []common.Address{member1, member2},
		TotalSupply:      100,
		VotingPeriod:     5,
		MinVotesRequired: 1,
	})
	require.NoError(t, err)
	return NewDispatcher(e, clock, org)
}

func TestCreateAndVoteUseTheClock(t *testing.T) {
	clock := chain.NewManualClock(10)
	d := newDispatcher(t, clock)
	ctx := context.Background()

	id, err := d.CreateProposal(ctx, member1, models.ProposalData{
		Name: "colour", Kind: "multiple_choice", Options: []string{"red", "blue"},
	})
	require.NoError(t, err)

	p, err := d.Engine.GetProposal(id, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(15), p.Deadline)

	clock.Advance(6)
	err = d.Vote(ctx, member2, models.VoteData{ProposalID: id, Option: 0})
	require.ErrorIs(t, err, dao.ErrProposalExpired)
}

type steppingClock struct {
	heights []uint64
}

func (c *steppingClock) Height(context.Context) (uint64, error) {
	h := c.heights[0]
	if len(c.heights) > 1 {
		c.heights = c.heights[1:]
	}
	return h, nil
}

func TestHeightsNeverGoBack(t *testing.T) {
	d := newDispatcher(t, chain.NewManualClock(0))
	d.Clock = &steppingClock{heights: []uint64{10, 16, 14}}
	ctx := context.Background()

	id, err := d.CreateProposal(ctx, member1, models.ProposalData{
		Name: "colour", Kind: "multiple_choice", Options: []string{"red", "blue"},
	})
	require.NoError(t, err)

	p, err := d.GetProposal(ctx, id)
	require.NoError(t, err)
	require.Equal(t, dao.Expired, p.Status)

	err = d.Vote(ctx, member2, models.VoteData{ProposalID: id, Option: 0})
	require.ErrorIs(t, err, dao.ErrProposalExpired)

	h, err := d.Height(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(16), h)

	ids, err := d.ActiveProposals(ctx)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestDeadlineOverflowIsABadRequest(t *testing.T) {
	d := newDispatcher(t, chain.NewManualClock(dao.MaxHeight))
	_, err := d.CreateProposal(context.Background(), member1, models.ProposalData{
		Name: "late", Kind: "multiple_choice", Options: []string{"a"},
	})
	require.ErrorIs(t, err, dao.ErrDeadlineOverflow)
	require.Equal(t, http.StatusBadRequest, StatusCode(err))
	require.Equal(t, uint(11), Code(err))
}

func TestCreateRejectsUnknownKind(t *testing.T) {
	d := newDispatcher(t, chain.NewManualClock(0))
	_, err := d.CreateProposal(context.Background(), member1, models.ProposalData{Kind: "lottery", Options: []string{"a"}})
	require.ErrorIs(t, err, ErrMalformed)
	require.Equal(t, http.StatusBadRequest, StatusCode(err))
}

func TestDistributeRequiresOrganization(t *testing.T) {
	d := newDispatcher(t, chain.NewManualClock(0))
	ctx := context.Background()
	data := models.DistributionData{Recipient: member2.Hex(), Amount: 7}

	require.ErrorIs(t, d.Distribute(ctx, member1, data), ErrForbidden)
	require.NoError(t, d.Distribute(ctx, org, data))
	require.Equal(t, dao.Amount(57), d.Engine.Balance(member2))

	err := d.Distribute(ctx, org, models.DistributionData{Recipient: "0x12", Amount: 1})
	require.ErrorIs(t, err, ErrMalformed)

	d.Organization = common.Address{}
	require.ErrorIs(t, d.Distribute(ctx, common.Address{}, data), ErrForbidden)
}

func TestStatusCode(t *testing.T) {
	cases := map[error]int{
		nil:                        http.StatusOK,
		dao.ErrNotMember:           http.StatusForbidden,
		ErrForbidden:               http.StatusForbidden,
		dao.ErrProposalNotFound:    http.StatusNotFound,
		dao.ErrAlreadyVoted:        http.StatusConflict,
		dao.ErrProposalExpired:     http.StatusConflict,
		dao.ErrInvalidOption:       http.StatusBadRequest,
		dao.ErrInvalidProposalType: http.StatusBadRequest,
		errors.New("db is gone"):   http.StatusInternalServerError,
	}
	for err, status := range cases {
		require.Equal(t, status, StatusCode(err), "%v", err)
	}

	wrapped := errors.Wrap(dao.ErrAlreadyVoted, "proposal 3")
	require.Equal(t, http.StatusConflict, StatusCode(wrapped))
	require.Equal(t, uint(4), Code(wrapped))
	require.Equal(t, uint(0), Code(errors.New("plain")))
}
