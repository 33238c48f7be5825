package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"onre/native/governance"
)

type governancePayload struct {
	Boss            string   `json:"boss"`
	ProposedBoss    string   `json:"proposedBoss,omitempty"`
	Admins          []string `json:"admins"`
	Approvers       []string `json:"approvers"`
	RedemptionAdmin string   `json:"redemptionAdmin,omitempty"`
	KillSwitch      bool     `json:"killSwitch"`
}

func governanceToPayload(state *governance.State) governancePayload {
	return governancePayload{
		Boss:            state.Boss,
		ProposedBoss:    state.ProposedBoss,
		Admins:          append([]string{}, state.Admins...),
		Approvers:       append([]string{}, state.Approvers...),
		RedemptionAdmin: state.RedemptionAdmin,
		KillSwitch:      state.KillSwitch,
	}
}

func (s *Server) handleGovernanceSnapshot(w http.ResponseWriter, r *http.Request) {
	state, err := s.governance.Snapshot()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, governanceToPayload(state))
}

type addressRequest struct {
	Address string `json:"address"`
}

func (s *Server) handleAddAdmin(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req addressRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	err := s.governance.AddAdmin(caller, req.Address)
	s.mu.Unlock()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleRemoveAdmin(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	err := s.governance.RemoveAdmin(caller, chi.URLParam(r, "address"))
	s.mu.Unlock()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleClearAdmins(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	err := s.governance.ClearAdmins(caller)
	s.mu.Unlock()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleAddApprover(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req addressRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	err := s.governance.AddApprover(caller, req.Address)
	s.mu.Unlock()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleRemoveApprover(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	err := s.governance.RemoveApprover(caller, chi.URLParam(r, "address"))
	s.mu.Unlock()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleProposeBoss(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req addressRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	err := s.governance.ProposeBoss(caller, req.Address)
	s.mu.Unlock()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleAcceptBoss(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	err := s.governance.AcceptBoss(caller)
	s.mu.Unlock()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

type killSwitchRequest struct {
	Engaged bool `json:"engaged"`
}

func (s *Server) handleKillSwitch(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req killSwitchRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	err := s.governance.SetKillSwitch(caller, req.Engaged)
	s.mu.Unlock()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleSetRedemptionAdmin(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req addressRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	err := s.governance.SetRedemptionAdmin(caller, req.Address)
	s.mu.Unlock()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

type maxSupplyRequest struct {
	Mint      string `json:"mint"`
	MaxSupply uint64 `json:"maxSupply"`
}

func (s *Server) handleSetMaxSupply(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req maxSupplyRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	err := s.governance.SetMaxSupply(caller, req.Mint, req.MaxSupply)
	s.mu.Unlock()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

type mintPayload struct {
	Symbol    string `json:"symbol"`
	Decimals  uint8  `json:"decimals"`
	Authority string `json:"authority"`
	Supply    uint64 `json:"supply"`
	MaxSupply uint64 `json:"maxSupply,omitempty"`
}

func (s *Server) handleGetMint(w http.ResponseWriter, r *http.Request) {
	mint, err := s.tokens.GetMint(chi.URLParam(r, "mint"))
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, mintPayload{
		Symbol:    mint.Symbol,
		Decimals:  mint.Decimals,
		Authority: mint.Authority,
		Supply:    mint.Supply,
		MaxSupply: mint.MaxSupply,
	})
}

type balancePayload struct {
	Account string `json:"account"`
	Mint    string `json:"mint"`
	Amount  uint64 `json:"amount"`
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	mint := chi.URLParam(r, "mint")
	amount, err := s.tokens.BalanceOf(account, mint)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, balancePayload{Account: account, Mint: mint, Amount: amount})
}
