package gateway

import (
	"net/http"

	"onre/native/vault"
)

type vectorPayload struct {
	SegmentID        uint64 `json:"segmentId"`
	StartTime        uint64 `json:"startTime"`
	StartPrice       uint64 `json:"startPrice"`
	APR              uint64 `json:"apr"`
	PriceFixDuration uint64 `json:"priceFixDuration"`
	ValidFrom        uint64 `json:"validFrom"`
}

type offerPayload struct {
	ID                  uint64          `json:"id"`
	TokenInMint         string          `json:"tokenInMint"`
	TokenOutMint        string          `json:"tokenOutMint"`
	FeeBps              uint32          `json:"feeBps"`
	NeedsApproval       bool            `json:"needsApproval"`
	AllowPermissionless bool            `json:"allowPermissionless"`
	Vectors             []vectorPayload `json:"vectors"`
}

type takeReceiptPayload struct {
	OfferID        uint64 `json:"offerId"`
	SegmentID      uint64 `json:"segmentId"`
	Price          uint64 `json:"price"`
	TokenInAmount  uint64 `json:"tokenInAmount"`
	NetIn          uint64 `json:"netIn"`
	TokenOutAmount uint64 `json:"tokenOutAmount"`
	OutputMinted   bool   `json:"outputMinted"`
	InputBurned    bool   `json:"inputBurned"`
	Permissionless bool   `json:"permissionless"`
}

func vectorToPayload(v vault.Vector) vectorPayload {
	return vectorPayload{
		SegmentID:        v.SegmentID,
		StartTime:        v.StartTime,
		StartPrice:       v.StartPrice,
		APR:              v.APR,
		PriceFixDuration: v.PriceFixDuration,
		ValidFrom:        v.ValidFrom,
	}
}

func offerToPayload(offer *vault.Offer) offerPayload {
	payload := offerPayload{
		ID:                  offer.ID,
		TokenInMint:         offer.TokenInMint,
		TokenOutMint:        offer.TokenOutMint,
		FeeBps:              offer.FeeBps,
		NeedsApproval:       offer.NeedsApproval,
		AllowPermissionless: offer.AllowPermissionless,
		Vectors:             make([]vectorPayload, 0, len(offer.Vectors)),
	}
	for _, v := range offer.Vectors {
		payload.Vectors = append(payload.Vectors, vectorToPayload(v))
	}
	return payload
}

func receiptToPayload(receipt *vault.TakeReceipt) takeReceiptPayload {
	return takeReceiptPayload{
		OfferID:        receipt.OfferID,
		SegmentID:      receipt.SegmentID,
		Price:          receipt.Price,
		TokenInAmount:  receipt.TokenInAmount,
		NetIn:          receipt.NetIn,
		TokenOutAmount: receipt.TokenOutAmount,
		OutputMinted:   receipt.OutputMinted,
		InputBurned:    receipt.InputBurned,
		Permissionless: receipt.Permissionless,
	}
}

type createOfferRequest struct {
	TokenInMint         string `json:"tokenInMint"`
	TokenOutMint        string `json:"tokenOutMint"`
	FeeBps              uint32 `json:"feeBps"`
	NeedsApproval       bool   `json:"needsApproval"`
	AllowPermissionless bool   `json:"allowPermissionless"`
}

func (s *Server) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req createOfferRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	offer, err := s.vault.CreateOffer(caller, req.TokenInMint, req.TokenOutMint, req.FeeBps, req.NeedsApproval, req.AllowPermissionless)
	s.mu.Unlock()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, offerToPayload(offer))
}

func (s *Server) handleDeleteOffer(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	offerID, err := pathUint(r, "offerID")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	err = s.vault.DeleteOffer(caller, offerID)
	s.mu.Unlock()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

type updateFeeRequest struct {
	FeeBps uint32 `json:"feeBps"`
}

func (s *Server) handleUpdateOfferFee(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	offerID, err := pathUint(r, "offerID")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	var req updateFeeRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	err = s.vault.UpdateOfferFee(caller, offerID, req.FeeBps)
	s.mu.Unlock()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

type addVectorRequest struct {
	StartTime        uint64 `json:"startTime"`
	StartPrice       uint64 `json:"startPrice"`
	APR              uint64 `json:"apr"`
	PriceFixDuration uint64 `json:"priceFixDuration"`
}

func (s *Server) handleAddVector(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	offerID, err := pathUint(r, "offerID")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	var req addVectorRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	vector, err := s.vault.AddVector(caller, offerID, req.StartTime, req.StartPrice, req.APR, req.PriceFixDuration)
	s.mu.Unlock()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, vectorToPayload(*vector))
}

func (s *Server) handleDeleteVector(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	offerID, err := pathUint(r, "offerID")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	segmentID, err := pathUint(r, "segmentID")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	err = s.vault.DeleteVector(caller, offerID, segmentID)
	s.mu.Unlock()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteAllVectors(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	offerID, err := pathUint(r, "offerID")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	err = s.vault.DeleteAllVectors(caller, offerID)
	s.mu.Unlock()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

type takeOfferRequest struct {
	TokenInAmount  uint64 `json:"tokenInAmount"`
	Approver       string `json:"approver,omitempty"`
	Permissionless bool   `json:"permissionless,omitempty"`
}

func (s *Server) handleTakeOffer(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	offerID, err := pathUint(r, "offerID")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	var req takeOfferRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	var receipt *vault.TakeReceipt
	if req.Permissionless {
		receipt, err = s.vault.TakeOfferPermissionless(caller, offerID, req.TokenInAmount, req.Approver)
	} else {
		receipt, err = s.vault.TakeOffer(caller, offerID, req.TokenInAmount, req.Approver)
	}
	s.mu.Unlock()
	if err != nil {
		s.metrics.RecordError("vault_take", err)
		s.engineError(w, r, err)
		return
	}
	s.metrics.RecordTake(receipt.OutputMinted, receipt.InputBurned)
	s.writeJSON(w, http.StatusOK, receiptToPayload(receipt))
}

func (s *Server) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	offerID, err := pathUint(r, "offerID")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	offer, err := s.vault.GetOffer(offerID)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, offerToPayload(offer))
}

func (s *Server) handleListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := s.vault.ListOffers()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	payload := make([]offerPayload, 0, len(offers))
	for _, offer := range offers {
		payload = append(payload, offerToPayload(offer))
	}
	s.writeJSON(w, http.StatusOK, payload)
}
