package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"onre/native/redemption"
)

type redemptionOfferPayload struct {
	TokenInMint          string `json:"tokenInMint"`
	TokenOutMint         string `json:"tokenOutMint"`
	FeeBps               uint32 `json:"feeBps"`
	Price                uint64 `json:"price"`
	StartTime            uint64 `json:"startTime"`
	EndTime              uint64 `json:"endTime"`
	ExecutedRedemptions  uint64 `json:"executedRedemptions"`
	RequestedRedemptions uint64 `json:"requestedRedemptions"`
	RequestCounter       uint64 `json:"requestCounter"`
}

type dualOfferPayload struct {
	TokenInMint   string `json:"tokenInMint"`
	TokenOutMint1 string `json:"tokenOutMint1"`
	TokenOutMint2 string `json:"tokenOutMint2"`
	FeeBps        uint32 `json:"feeBps"`
	RatioBps      uint32 `json:"ratioBps"`
	Price1        uint64 `json:"price1"`
	Price2        uint64 `json:"price2"`
	StartTime     uint64 `json:"startTime"`
	EndTime       uint64 `json:"endTime"`
	Executed      uint64 `json:"executed"`
}

type redemptionReceiptPayload struct {
	TokenInMint    string `json:"tokenInMint"`
	TokenOutMint   string `json:"tokenOutMint"`
	Price          uint64 `json:"price"`
	TokenInAmount  uint64 `json:"tokenInAmount"`
	NetIn          uint64 `json:"netIn"`
	TokenOutAmount uint64 `json:"tokenOutAmount"`
	OutputMinted   bool   `json:"outputMinted"`
	InputBurned    bool   `json:"inputBurned"`
}

type legPayload struct {
	Mint      string `json:"mint"`
	Share     uint64 `json:"share"`
	Price     uint64 `json:"price"`
	AmountOut uint64 `json:"amountOut"`
	Minted    bool   `json:"minted"`
}

type dualReceiptPayload struct {
	TokenInMint   string        `json:"tokenInMint"`
	TokenInAmount uint64        `json:"tokenInAmount"`
	NetIn         uint64        `json:"netIn"`
	InputBurned   bool          `json:"inputBurned"`
	Legs          [2]legPayload `json:"legs"`
}

type requestPayload struct {
	TokenInMint   string `json:"tokenInMint"`
	TokenOutMint  string `json:"tokenOutMint"`
	Counter       uint64 `json:"counter"`
	Requester     string `json:"requester"`
	TokenInAmount uint64 `json:"tokenInAmount"`
	CreatedAt     uint64 `json:"createdAt"`
	Status        string `json:"status"`
	ClosedAt      uint64 `json:"closedAt,omitempty"`
}

func redemptionOfferToPayload(offer *redemption.Offer) redemptionOfferPayload {
	return redemptionOfferPayload{
		TokenInMint:          offer.TokenInMint,
		TokenOutMint:         offer.TokenOutMint,
		FeeBps:               offer.FeeBps,
		Price:                offer.Price,
		StartTime:            offer.StartTime,
		EndTime:              offer.EndTime,
		ExecutedRedemptions:  offer.ExecutedRedemptions,
		RequestedRedemptions: offer.RequestedRedemptions,
		RequestCounter:       offer.RequestCounter,
	}
}

func dualOfferToPayload(offer *redemption.DualOffer) dualOfferPayload {
	return dualOfferPayload{
		TokenInMint:   offer.TokenInMint,
		TokenOutMint1: offer.TokenOutMint1,
		TokenOutMint2: offer.TokenOutMint2,
		FeeBps:        offer.FeeBps,
		RatioBps:      offer.RatioBps,
		Price1:        offer.Price1,
		Price2:        offer.Price2,
		StartTime:     offer.StartTime,
		EndTime:       offer.EndTime,
		Executed:      offer.Executed,
	}
}

func redemptionReceiptToPayload(receipt *redemption.Receipt) redemptionReceiptPayload {
	return redemptionReceiptPayload{
		TokenInMint:    receipt.TokenInMint,
		TokenOutMint:   receipt.TokenOutMint,
		Price:          receipt.Price,
		TokenInAmount:  receipt.TokenInAmount,
		NetIn:          receipt.NetIn,
		TokenOutAmount: receipt.TokenOutAmount,
		OutputMinted:   receipt.OutputMinted,
		InputBurned:    receipt.InputBurned,
	}
}

func dualReceiptToPayload(receipt *redemption.DualReceipt) dualReceiptPayload {
	payload := dualReceiptPayload{
		TokenInMint:   receipt.TokenInMint,
		TokenInAmount: receipt.TokenInAmount,
		NetIn:         receipt.NetIn,
		InputBurned:   receipt.InputBurned,
	}
	for i, leg := range receipt.Legs {
		payload.Legs[i] = legPayload{
			Mint:      leg.Mint,
			Share:     leg.Share,
			Price:     leg.Price,
			AmountOut: leg.AmountOut,
			Minted:    leg.Minted,
		}
	}
	return payload
}

func requestToPayload(request *redemption.Request) requestPayload {
	return requestPayload{
		TokenInMint:   request.TokenInMint,
		TokenOutMint:  request.TokenOutMint,
		Counter:       request.Counter,
		Requester:     request.Requester,
		TokenInAmount: request.TokenInAmount,
		CreatedAt:     request.CreatedAt,
		Status:        request.Status.String(),
		ClosedAt:      request.ClosedAt,
	}
}

type createRedemptionOfferRequest struct {
	TokenInMint  string `json:"tokenInMint"`
	TokenOutMint string `json:"tokenOutMint"`
	FeeBps       uint32 `json:"feeBps"`
	Price        uint64 `json:"price"`
	StartTime    uint64 `json:"startTime"`
	EndTime      uint64 `json:"endTime"`
}

func (s *Server) handleCreateRedemptionOffer(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req createRedemptionOfferRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	offer, err := s.redemption.CreateOffer(caller, req.TokenInMint, req.TokenOutMint, req.FeeBps, req.Price, req.StartTime, req.EndTime)
	s.mu.Unlock()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, redemptionOfferToPayload(offer))
}

type createDualOfferRequest struct {
	TokenInMint   string `json:"tokenInMint"`
	TokenOutMint1 string `json:"tokenOutMint1"`
	TokenOutMint2 string `json:"tokenOutMint2"`
	FeeBps        uint32 `json:"feeBps"`
	RatioBps      uint32 `json:"ratioBps"`
	Price1        uint64 `json:"price1"`
	Price2        uint64 `json:"price2"`
	StartTime     uint64 `json:"startTime"`
	EndTime       uint64 `json:"endTime"`
}

func (s *Server) handleCreateDualOffer(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req createDualOfferRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	offer, err := s.redemption.CreateDualOffer(caller, req.TokenInMint, req.TokenOutMint1, req.TokenOutMint2, req.FeeBps, req.RatioBps, req.Price1, req.Price2, req.StartTime, req.EndTime)
	s.mu.Unlock()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, dualOfferToPayload(offer))
}

func (s *Server) handleUpdateRedemptionFee(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req updateFeeRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	err := s.redemption.UpdateFee(caller, chi.URLParam(r, "tokenIn"), chi.URLParam(r, "tokenOut"), req.FeeBps)
	s.mu.Unlock()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleUpdateDualFee(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req updateFeeRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	err := s.redemption.UpdateDualFee(caller, chi.URLParam(r, "tokenIn"), chi.URLParam(r, "tokenOut1"), chi.URLParam(r, "tokenOut2"), req.FeeBps)
	s.mu.Unlock()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

type takeRedemptionRequest struct {
	TokenInAmount uint64 `json:"tokenInAmount"`
}

func (s *Server) handleTakeRedemption(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req takeRedemptionRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	receipt, err := s.redemption.Take(caller, chi.URLParam(r, "tokenIn"), chi.URLParam(r, "tokenOut"), req.TokenInAmount)
	s.mu.Unlock()
	if err != nil {
		s.metrics.RecordError("redemption_take", err)
		s.engineError(w, r, err)
		return
	}
	s.metrics.RecordRedemption("single")
	s.writeJSON(w, http.StatusOK, redemptionReceiptToPayload(receipt))
}

func (s *Server) handleTakeDual(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req takeRedemptionRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	receipt, err := s.redemption.TakeDual(caller, chi.URLParam(r, "tokenIn"), chi.URLParam(r, "tokenOut1"), chi.URLParam(r, "tokenOut2"), req.TokenInAmount)
	s.mu.Unlock()
	if err != nil {
		s.metrics.RecordError("redemption_take_dual", err)
		s.engineError(w, r, err)
		return
	}
	s.metrics.RecordRedemption("dual")
	s.writeJSON(w, http.StatusOK, dualReceiptToPayload(receipt))
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req takeRedemptionRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	request, err := s.redemption.CreateRequest(caller, chi.URLParam(r, "tokenIn"), chi.URLParam(r, "tokenOut"), req.TokenInAmount)
	s.mu.Unlock()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, requestToPayload(request))
}

func (s *Server) handleFulfillRequest(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	counter, err := pathUint(r, "counter")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	receipt, err := s.redemption.FulfillRequest(caller, chi.URLParam(r, "tokenIn"), chi.URLParam(r, "tokenOut"), counter)
	s.mu.Unlock()
	if err != nil {
		s.metrics.RecordError("redemption_fulfill", err)
		s.engineError(w, r, err)
		return
	}
	s.metrics.RecordRedemption("fulfil")
	s.writeJSON(w, http.StatusOK, redemptionReceiptToPayload(receipt))
}

func (s *Server) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	counter, err := pathUint(r, "counter")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	err = s.redemption.CancelRequest(caller, chi.URLParam(r, "tokenIn"), chi.URLParam(r, "tokenOut"), counter)
	s.mu.Unlock()
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleGetRedemptionOffer(w http.ResponseWriter, r *http.Request) {
	offer, err := s.redemption.GetOffer(chi.URLParam(r, "tokenIn"), chi.URLParam(r, "tokenOut"))
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, redemptionOfferToPayload(offer))
}

func (s *Server) handleGetDualOffer(w http.ResponseWriter, r *http.Request) {
	offer, err := s.redemption.GetDualOffer(chi.URLParam(r, "tokenIn"), chi.URLParam(r, "tokenOut1"), chi.URLParam(r, "tokenOut2"))
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, dualOfferToPayload(offer))
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := s.redemption.ListRequests(chi.URLParam(r, "tokenIn"), chi.URLParam(r, "tokenOut"))
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	payload := make([]requestPayload, 0, len(requests))
	for _, request := range requests {
		payload = append(payload, requestToPayload(request))
	}
	s.writeJSON(w, http.StatusOK, payload)
}
