package dao

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ndau/simple-dao/tracking"
)

// Vote records caller's vote for option on proposal id at height now and
// re-evaluates the outcome.
//
// Checks run in this order: membership, existence, double vote, terminal
// status, deadline, option range. A vote that arrives after the deadline of a
// still-Active proposal commits the Expired status before failing.
func (e *Engine) Vote(ctx context.Context, caller common.Address, id uint32, option uint32, now uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	trackingNumber := tracking.From(ctx)

	if !e.members.IsMember(caller) {
		return ErrNotMember
	}
	stored, err := e.proposals.get(id)
	if err != nil {
		return err
	}
	if stored.HasVoted(caller) {
		return ErrAlreadyVoted
	}
	if stored.Status != Active {
		return ErrProposalExpired
	}

	if stored.StatusAt(now) == Expired {
		if err := e.expire(ctx, stored); err != nil {
			return err
		}
		e.log.Infof("%s | Proposal %d expired at height %d (deadline %d)", trackingNumber, id, now, stored.Deadline)
		return ErrProposalExpired
	}

	if uint64(option) >= uint64(len(stored.Options)) {
		return ErrInvalidOption
	}

	next := stored.Clone()
	next.Votes[option]++
	next.Voters = append(next.Voters, caller)
	next.Status = Evaluate(next.Kind, next.Votes, e.params.MinVotesRequired)

	if err := e.commit(ctx, &Change{
		Proposal: next,
		NextID:   e.proposals.NextID(),
	}); err != nil {
		return err
	}
	e.proposals.put(next)

	if next.Status != Active {
		e.log.Infof("%s | Proposal %d is now %s with votes %v", trackingNumber, id, next.Status, next.Votes)
	}
	e.notifier.Notify(ctx, VoteCast{
		ProposalID: id,
		Voter:      caller,
		Option:     option,
		Status:     next.Status.String(),
	})
	return nil
}

// expire commits the Expired status of a proposal found past its deadline.
// Committing it twice is harmless.
func (e *Engine) expire(ctx context.Context, stored *Proposal) error {
	expired := stored.Clone()
	expired.Status = Expired
	if err := e.commit(ctx, &Change{
		Proposal: expired,
		NextID:   e.proposals.NextID(),
	}); err != nil {
		return err
	}
	e.proposals.put(expired)
	return nil
}
