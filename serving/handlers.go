package serving

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/ndau/simple-dao/commands"
	"github.com/ndau/simple-dao/dao"
	"github.com/ndau/simple-dao/models"
	"github.com/ndau/simple-dao/tracking"
)

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.Log.Errorf("%s | Failed writing the response: %v", tracking.From(r.Context()), err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := commands.StatusCode(err)
	body := models.ErrorView{Code: commands.Code(err), Message: err.Error()}

	var e *dao.Error
	if errors.As(err, &e) && status != http.StatusBadRequest {
		body.Message = e.Message
	}
	if status == http.StatusInternalServerError {
		s.Log.Errorf("%s | Request failed: %v", tracking.From(r.Context()), err)
		body.Message = http.StatusText(status)
	}
	s.writeJSON(w, r, status, body)
}

func (s *Server) caller(r *http.Request) (common.Address, error) {
	return commands.ParseAddress(r.Header.Get(CallerHeader))
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(commands.ErrMalformed, err.Error())
	}
	return nil
}

func proposalID(r *http.Request) (uint32, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		return 0, errors.Wrap(commands.ErrMalformed, err.Error())
	}
	return uint32(id), nil
}

func toView(p *dao.Proposal) models.ProposalView {
	voters := make([]string, 0, len(p.Voters))
	for _, v := range p.Voters {
		voters = append(voters, v.Hex())
	}
	return models.ProposalView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Author:      p.Author.Hex(),
		Kind:        p.Kind.String(),
		Options:     p.Options,
		Amount:      p.Amount,
		Votes:       p.Votes,
		Voters:      voters,
		Status:      p.Status.String(),
		CreatedAt:   p.CreatedAt,
		Deadline:    p.Deadline,
	}
}

func (s *Server) createProposal(w http.ResponseWriter, r *http.Request) {
	caller, err := s.caller(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var data models.ProposalData
	if err := decodeBody(r, &data); err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := s.dispatcher.CreateProposal(r.Context(), caller, data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, map[string]uint32{"id": id})
}

func (s *Server) vote(w http.ResponseWriter, r *http.Request) {
	caller, err := s.caller(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := proposalID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var data models.VoteData
	if err := decodeBody(r, &data); err != nil {
		s.writeError(w, r, err)
		return
	}
	data.ProposalID = id

	if err := s.dispatcher.Vote(r.Context(), caller, data); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) distribute(w http.ResponseWriter, r *http.Request) {
	caller, err := s.caller(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var data models.DistributionData
	if err := decodeBody(r, &data); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.dispatcher.Distribute(r.Context(), caller, data); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getProposal(w http.ResponseWriter, r *http.Request) {
	id, err := proposalID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.dispatcher.GetProposal(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toView(p))
}

func (s *Server) activeProposals(w http.ResponseWriter, r *http.Request) {
	ids, err := s.dispatcher.ActiveProposals(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []uint32{}
	}
	s.writeJSON(w, r, http.StatusOK, ids)
}

func (s *Server) members(w http.ResponseWriter, r *http.Request) {
	members := s.dispatcher.Engine.Members()
	out := make([]string, 0, len(members))
	for _, m := range members {
		out = append(out, m.Hex())
	}
	s.writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) member(w http.ResponseWriter, r *http.Request) {
	address, err := commands.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, models.MemberView{
		Address: address.Hex(),
		Member:  s.dispatcher.Engine.IsMember(address),
		Balance: s.dispatcher.Engine.Balance(address),
	})
}

func (s *Server) supply(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]uint64{"total_supply": s.dispatcher.Engine.TotalSupply()})
}

func (s *Server) height(w http.ResponseWriter, r *http.Request) {
	now, err := s.dispatcher.Height(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]uint64{"height": now})
}
