package dao

// Evaluate returns the status an Active proposal moves to after a vote.
// Nothing changes until at least minVotes votes have been cast. Majority is
// strict: exactly half of the votes cast never passes.
//
// A MultipleChoice proposal is never Rejected here; without a majority it
// stays Active until its deadline. A MoneyRequest is decided as soon as the
// threshold is met.
func Evaluate(kind ProposalKind, votes []uint32, minVotes uint32) ProposalStatus {
	var total, max uint32
	for _, n := range votes {
		total += n
		if n > max {
			max = n
		}
	}
	if total < minVotes {
		return Active
	}

	switch kind {
	case MultipleChoice:
		if max > total/2 {
			return Passed
		}
	case MoneyRequest:
		if len(votes) > 0 && votes[0] > total/2 {
			return Passed
		}
		return Rejected
	}
	return Active
}
