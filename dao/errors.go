package dao

import (
	"fmt"
)

// Error is a recoverable failure returned by the engine. The caller decides
// whether to retry; the engine never does.
type Error struct {
	Code    uint   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

func NewError(code uint, message string) *Error {
	return &Error{Code: code, Message: message}
}

var (
	ErrNotMember           = NewError(1, "caller is not a member")
	ErrProposalNotFound    = NewError(2, "proposal not found")
	ErrProposalExpired     = NewError(3, "proposal is no longer active")
	ErrAlreadyVoted        = NewError(4, "member has already voted on this proposal")
	ErrInvalidOption       = NewError(5, "invalid option index")
	ErrInvalidProposalType = NewError(6, "invalid proposal type for the given options")

	// ErrInsufficientBalance is reserved; no operation transfers out of a
	// member balance.
	ErrInsufficientBalance = NewError(7, "insufficient balance")

	ErrEmptyMembers        = NewError(8, "member list is empty")
	ErrInvalidVotingPeriod = NewError(9, "voting period is out of range")
	ErrSupplyOverflow      = NewError(10, "amount overflows the token supply")
	ErrDeadlineOverflow    = NewError(11, "deadline overflows the block height")
)
