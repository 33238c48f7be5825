package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"onre/native/common"
	"onre/native/governance"
	"onre/native/redemption"
	"onre/native/token"
	"onre/native/vault"
	"onre/observability"
)

const maxRequestBody = 1 << 20

// Server exposes the venue operations over HTTP. All state-changing calls
// are serialized through a single mutex; reads go straight to the engines.
type Server struct {
	vault      *vault.Engine
	redemption *redemption.Engine
	governance *governance.Engine
	tokens     *token.Book
	logger     *slog.Logger
	metrics    *observability.VenueMetrics

	mu sync.Mutex
}

// NewServer constructs a gateway server over the wired engines.
func NewServer(vaultEngine *vault.Engine, redemptionEngine *redemption.Engine, governanceEngine *governance.Engine, tokens *token.Book, logger *slog.Logger) *Server {
	if vaultEngine == nil || redemptionEngine == nil || governanceEngine == nil || tokens == nil {
		panic("gateway: all engines are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		vault:      vaultEngine,
		redemption: redemptionEngine,
		governance: governanceEngine,
		tokens:     tokens,
		logger:     logger,
		metrics:    observability.Venue(),
	}
}

// Router assembles the authenticated API surface.
func (s *Server) Router(auth *Authenticator) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Observe(s.logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		if auth != nil {
			r.Use(auth.Middleware)
		}

		r.Route("/v1/vault", func(r chi.Router) {
			r.Get("/offers", s.handleListOffers)
			r.Post("/offers", s.handleCreateOffer)
			r.Get("/offers/{offerID}", s.handleGetOffer)
			r.Delete("/offers/{offerID}", s.handleDeleteOffer)
			r.Put("/offers/{offerID}/fee", s.handleUpdateOfferFee)
			r.Post("/offers/{offerID}/vectors", s.handleAddVector)
			r.Delete("/offers/{offerID}/vectors", s.handleDeleteAllVectors)
			r.Delete("/offers/{offerID}/vectors/{segmentID}", s.handleDeleteVector)
			r.Post("/offers/{offerID}/take", s.handleTakeOffer)
		})

		r.Route("/v1/redemption", func(r chi.Router) {
			r.Post("/offers", s.handleCreateRedemptionOffer)
			r.Get("/offers/{tokenIn}/{tokenOut}", s.handleGetRedemptionOffer)
			r.Put("/offers/{tokenIn}/{tokenOut}/fee", s.handleUpdateRedemptionFee)
			r.Post("/offers/{tokenIn}/{tokenOut}/take", s.handleTakeRedemption)
			r.Post("/dual-offers", s.handleCreateDualOffer)
			r.Get("/dual-offers/{tokenIn}/{tokenOut1}/{tokenOut2}", s.handleGetDualOffer)
			r.Put("/dual-offers/{tokenIn}/{tokenOut1}/{tokenOut2}/fee", s.handleUpdateDualFee)
			r.Post("/dual-offers/{tokenIn}/{tokenOut1}/{tokenOut2}/take", s.handleTakeDual)
			r.Get("/offers/{tokenIn}/{tokenOut}/requests", s.handleListRequests)
			r.Post("/offers/{tokenIn}/{tokenOut}/requests", s.handleCreateRequest)
			r.Post("/offers/{tokenIn}/{tokenOut}/requests/{counter}/fulfill", s.handleFulfillRequest)
			r.Post("/offers/{tokenIn}/{tokenOut}/requests/{counter}/cancel", s.handleCancelRequest)
		})

		r.Route("/v1/governance", func(r chi.Router) {
			r.Get("/", s.handleGovernanceSnapshot)
			r.Post("/admins", s.handleAddAdmin)
			r.Delete("/admins", s.handleClearAdmins)
			r.Delete("/admins/{address}", s.handleRemoveAdmin)
			r.Post("/approvers", s.handleAddApprover)
			r.Delete("/approvers/{address}", s.handleRemoveApprover)
			r.Post("/boss/propose", s.handleProposeBoss)
			r.Post("/boss/accept", s.handleAcceptBoss)
			r.Post("/kill-switch", s.handleKillSwitch)
			r.Post("/redemption-admin", s.handleSetRedemptionAdmin)
			r.Post("/max-supply", s.handleSetMaxSupply)
		})

		r.Route("/v1/tokens", func(r chi.Router) {
			r.Get("/{mint}", s.handleGetMint)
			r.Get("/{mint}/balances/{account}", s.handleGetBalance)
		})
	})

	return r
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(into); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return false
	}
	return true
}

func (s *Server) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller, err := CallerFromContext(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusUnauthorized, err)
		return "", false
	}
	return caller, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// engineError maps engine sentinel errors onto HTTP statuses.
func (s *Server) engineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, vault.ErrOfferNotFound),
		errors.Is(err, vault.ErrVectorNotFound),
		errors.Is(err, redemption.ErrOfferNotFound),
		errors.Is(err, redemption.ErrRequestNotFound),
		errors.Is(err, token.ErrUnknownMint):
		s.writeError(w, r, http.StatusNotFound, err)
	case errors.Is(err, governance.ErrCallerNotBoss),
		errors.Is(err, governance.ErrCallerNotAdmin),
		errors.Is(err, governance.ErrCallerNotRedemptionAdmin),
		errors.Is(err, redemption.ErrCallerNotRequester),
		errors.Is(err, vault.ErrApprovalRequired),
		errors.Is(err, vault.ErrPermissionlessDisabled):
		s.writeError(w, r, http.StatusForbidden, err)
	case errors.Is(err, common.ErrModuleHalted):
		s.writeError(w, r, http.StatusServiceUnavailable, err)
	case errors.Is(err, redemption.ErrOfferExists),
		errors.Is(err, redemption.ErrRequestClosed),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, vault.ErrInsufficientOfferBalance):
		s.writeError(w, r, http.StatusConflict, err)
	case errors.Is(err, vault.ErrInvalidOffer),
		errors.Is(err, vault.ErrInvalidVector),
		errors.Is(err, vault.ErrFeeOutOfRange),
		errors.Is(err, vault.ErrStartTimeNotIncreasing),
		errors.Is(err, vault.ErrMaxSegmentsReached),
		errors.Is(err, vault.ErrNoActiveVector),
		errors.Is(err, vault.ErrCalculationOverflow),
		errors.Is(err, vault.ErrZeroAmount),
		errors.Is(err, vault.ErrAmountTooSmall),
		errors.Is(err, vault.ErrInvalidCaller),
		errors.Is(err, redemption.ErrInvalidOffer),
		errors.Is(err, redemption.ErrFeeOutOfRange),
		errors.Is(err, redemption.ErrOfferExpired),
		errors.Is(err, redemption.ErrZeroAmount),
		errors.Is(err, redemption.ErrAmountTooSmall),
		errors.Is(err, redemption.ErrInvalidCaller),
		errors.Is(err, governance.ErrInvalidAddress),
		errors.Is(err, governance.ErrAdminAlreadyExists),
		errors.Is(err, governance.ErrAdminNotFound),
		errors.Is(err, governance.ErrMaxAdminsReached),
		errors.Is(err, governance.ErrApproverAlreadyExists),
		errors.Is(err, governance.ErrApproverNotFound),
		errors.Is(err, governance.ErrMaxApproversReached),
		errors.Is(err, governance.ErrNoProposedBoss),
		errors.Is(err, governance.ErrNotProposedBoss),
		errors.Is(err, token.ErrInvalidMint),
		errors.Is(err, token.ErrInvalidAccount),
		errors.Is(err, token.ErrBalanceOverflow),
		errors.Is(err, token.ErrSupplyOverflow),
		errors.Is(err, token.ErrMaxSupplyExceeded):
		s.writeError(w, r, http.StatusBadRequest, err)
	default:
		s.writeError(w, r, http.StatusInternalServerError, err)
	}
}

func pathUint(r *http.Request, name string) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, name), 10, 64)
}
