// Package commands turns transport payloads into engine operations. The HTTP
// server and the CloudEvents receiver both dispatch through it so that caller
// checks, clock reads and error codes stay identical on either surface.
package commands

import (
	"context"
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ndau/simple-dao/chain"
	"github.com/ndau/simple-dao/dao"
	"github.com/ndau/simple-dao/models"
	"github.com/ndau/simple-dao/tracking"
)

var (
	ErrForbidden = dao.NewError(100, "caller may not distribute tokens")
	ErrMalformed = dao.NewError(101, "malformed request")
)

// Dispatcher reads the clock and calls the engine under one lock, so the
// engine sees heights in the order they were read. A height is never lower
// than one already handed out, even when the clock steps back.
type Dispatcher struct {
	Engine *dao.Engine
	Clock  chain.Clock

	// Organization is the only caller allowed to distribute tokens. The zero
	// address disables distribution.
	Organization common.Address

	Log *zap.SugaredLogger

	mu   sync.Mutex
	last uint64
}

func NewDispatcher(engine *dao.Engine, clock chain.Clock, organization common.Address, loggers ...*zap.SugaredLogger) *Dispatcher {
	log := zap.NewNop().Sugar()
	if len(loggers) > 0 {
		log = loggers[0]
	}
	return &Dispatcher{
		Engine:       engine,
		Clock:        clock,
		Organization: organization,
		Log:          log,
	}
}

// ParseAddress reads a hex account address.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.Wrapf(ErrMalformed, "invalid address '%s'", s)
	}
	return common.HexToAddress(s), nil
}

// Height reads the clock.
func (d *Dispatcher) Height(ctx context.Context) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.height(ctx)
}

func (d *Dispatcher) height(ctx context.Context) (uint64, error) {
	h, err := d.Clock.Height(ctx)
	if err != nil {
		d.Log.Errorf("%s | Failed reading the block height: %v", tracking.From(ctx), err)
		return 0, err
	}
	if h < d.last {
		d.Log.Warnf("%s | Clock went back from %d to %d", tracking.From(ctx), d.last, h)
		return d.last, nil
	}
	d.last = h
	return h, nil
}

// at runs fn with the current height while holding the dispatcher lock.
func (d *Dispatcher) at(ctx context.Context, fn func(now uint64) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	now, err := d.height(ctx)
	if err != nil {
		return err
	}
	return fn(now)
}

func (d *Dispatcher) CreateProposal(ctx context.Context, caller common.Address, data models.ProposalData) (uint32, error) {
	kind, err := dao.ParseProposalKind(data.Kind)
	if err != nil {
		return 0, errors.Wrap(ErrMalformed, err.Error())
	}
	var id uint32
	err = d.at(ctx, func(now uint64) (err error) {
		id, err = d.Engine.CreateProposal(ctx, caller, dao.NewProposal{
			Name:        data.Name,
			Description: data.Description,
			Kind:        kind,
			Options:     data.Options,
			Amount:      data.Amount,
		}, now)
		return err
	})
	return id, err
}

func (d *Dispatcher) Vote(ctx context.Context, caller common.Address, data models.VoteData) error {
	return d.at(ctx, func(now uint64) error {
		return d.Engine.Vote(ctx, caller, data.ProposalID, data.Option, now)
	})
}

// GetProposal returns the proposal as seen at the current height.
func (d *Dispatcher) GetProposal(ctx context.Context, id uint32) (p *dao.Proposal, err error) {
	err = d.at(ctx, func(now uint64) (err error) {
		p, err = d.Engine.GetProposal(id, now)
		return err
	})
	return p, err
}

func (d *Dispatcher) ActiveProposals(ctx context.Context) (ids []uint32, err error) {
	err = d.at(ctx, func(now uint64) error {
		ids = d.Engine.ActiveProposals(now)
		return nil
	})
	return ids, err
}

func (d *Dispatcher) Distribute(ctx context.Context, caller common.Address, data models.DistributionData) error {
	if d.Organization == (common.Address{}) || caller != d.Organization {
		d.Log.Warnf("%s | Distribution refused for caller %s", tracking.From(ctx), caller.Hex())
		return ErrForbidden
	}
	recipient, err := ParseAddress(data.Recipient)
	if err != nil {
		return err
	}
	return d.Engine.DistributeTokens(ctx, recipient, data.Amount)
}

// Code returns the numeric code of the engine error behind err, or 0.
func Code(err error) uint {
	var e *dao.Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// StatusCode maps an error to the HTTP status both transports answer with.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch {
	case errors.Is(err, dao.ErrNotMember), errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, dao.ErrProposalNotFound):
		return http.StatusNotFound
	case errors.Is(err, dao.ErrAlreadyVoted), errors.Is(err, dao.ErrProposalExpired):
		return http.StatusConflict
	case errors.Is(err, dao.ErrInvalidOption), errors.Is(err, dao.ErrInvalidProposalType),
		errors.Is(err, dao.ErrSupplyOverflow), errors.Is(err, dao.ErrDeadlineOverflow),
		errors.Is(err, ErrMalformed):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
