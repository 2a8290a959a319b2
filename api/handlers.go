package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ffarena/models"
	"ffarena/service"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

type handlers struct {
	registrations service.RegistrationService
	lifecycle     service.LifecycleService
	wallets       service.WalletService
	tournaments   service.TournamentService
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeServiceError maps service failures to HTTP responses. Every body
// carries a machine-readable error code; some codes carry extra detail.
func writeServiceError(w http.ResponseWriter, err error) {
	var insufficientErr *service.InsufficientBalanceError
	var validationErr *service.ValidationError

	switch {
	case errors.Is(err, service.ErrTournamentNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "tournament_not_found"})
	case errors.Is(err, service.ErrRegistrationNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "registration_not_found"})
	case errors.Is(err, service.ErrWalletNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "wallet_not_found"})
	case errors.Is(err, service.ErrTournamentFull):
		writeJSON(w, http.StatusConflict, map[string]any{"error": "tournament_full"})
	case errors.Is(err, service.ErrAlreadyRegistered):
		writeJSON(w, http.StatusConflict, map[string]any{"error": "already_registered"})
	case errors.Is(err, service.ErrRegistrationClosed):
		writeJSON(w, http.StatusConflict, map[string]any{"error": "registration_closed"})
	case errors.Is(err, service.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, map[string]any{"error": "invalid_transition"})
	case errors.As(err, &insufficientErr):
		writeJSON(w, http.StatusPaymentRequired, map[string]any{
			"error":     "insufficient_balance",
			"balance":   insufficientErr.Balance,
			"required":  insufficientErr.Required,
			"shortfall": insufficientErr.Shortfall(),
		})
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "validation_error",
			"field":   validationErr.Field,
			"message": validationErr.Message,
		})
	case errors.Is(err, service.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "temporarily_unavailable"})
	default:
		log.WithError(err).Error("Unhandled service error")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal_error"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed_body"})
		return false
	}
	return true
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// updateTournamentStates runs one lifecycle sweep and reports what changed
func (h *handlers) updateTournamentStates(w http.ResponseWriter, r *http.Request) {
	result, err := h.lifecycle.UpdateTournamentStates(r.Context())
	if err != nil {
		log.WithError(err).Error("Lifecycle sweep failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success":   false,
			"error":     "failed to update tournament states",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":             true,
		"updated":             result.Updated,
		"startedCount":        result.StartedCount,
		"completedCount":      result.CompletedCount,
		"awaitingPayoutCount": result.AwaitingPayoutCount,
		"timestamp":           time.Now().UTC().Format(time.RFC3339),
	})
}

type registerRequest struct {
	UserID    string  `json:"userId"`
	UserName  string  `json:"userName"`
	UserEmail string  `json:"userEmail"`
	TeamName  *string `json:"teamName,omitempty"`
}

type registrationResponse struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	UserName         string    `json:"userName"`
	TournamentID     string    `json:"tournamentId"`
	TeamName         *string   `json:"teamName,omitempty"`
	EntryFeePaid     int64     `json:"entryFeePaid"`
	SlotNumber       *int      `json:"slotNumber,omitempty"`
	Position         *int      `json:"position,omitempty"`
	Kills            *int      `json:"kills,omitempty"`
	PrizeWon         *int64    `json:"prizeWon,omitempty"`
	RegistrationTime time.Time `json:"registrationTime"`
}

func toRegistrationResponse(reg *models.Registration) registrationResponse {
	return registrationResponse{
		ID:               reg.ID,
		UserID:           reg.UserID,
		UserName:         reg.UserName,
		TournamentID:     reg.TournamentID,
		TeamName:         reg.TeamName,
		EntryFeePaid:     reg.EntryFeePaid,
		SlotNumber:       reg.SlotNumber,
		Position:         reg.Position,
		Kills:            reg.Kills,
		PrizeWon:         reg.PrizeWon,
		RegistrationTime: reg.RegistrationTime,
	}
}

func (h *handlers) registerPlayer(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	reg, err := h.registrations.RegisterPlayer(r.Context(), service.RegisterPlayerInput{
		UserID:       req.UserID,
		UserName:     req.UserName,
		UserEmail:    req.UserEmail,
		TournamentID: chi.URLParam(r, "tournamentID"),
		TeamName:     req.TeamName,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRegistrationResponse(reg))
}

func (h *handlers) unregisterPlayer(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "validation_error",
			"field":   "userId",
			"message": "query parameter is required",
		})
		return
	}

	err := h.registrations.UnregisterPlayer(r.Context(), userID, chi.URLParam(r, "tournamentID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *handlers) listTournamentRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.registrations.ListTournamentRegistrations(r.Context(), chi.URLParam(r, "tournamentID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]registrationResponse, 0, len(regs))
	for _, reg := range regs {
		out = append(out, toRegistrationResponse(reg))
	}
	writeJSON(w, http.StatusOK, map[string]any{"registrations": out})
}

func (h *handlers) listUserRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.registrations.ListUserRegistrations(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]registrationResponse, 0, len(regs))
	for _, reg := range regs {
		out = append(out, toRegistrationResponse(reg))
	}
	writeJSON(w, http.StatusOK, map[string]any{"registrations": out})
}

type tournamentRequest struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Mode         string     `json:"mode"`
	Type         string     `json:"type"`
	EntryFee     int64      `json:"entryFee"`
	PrizePool    int64      `json:"prizePool"`
	MaxSlots     int        `json:"maxSlots"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	RoomID       *string    `json:"roomId,omitempty"`
	RoomPassword *string    `json:"roomPassword,omitempty"`
}

type tournamentResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Mode            string     `json:"mode"`
	Type            string     `json:"type"`
	EntryFee        int64      `json:"entryFee"`
	PrizePool       int64      `json:"prizePool"`
	MaxSlots        int        `json:"maxSlots"`
	RegisteredSlots int        `json:"registeredSlots"`
	Status          string     `json:"status"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	RoomID          *string    `json:"roomId,omitempty"`
	RoomPassword    *string    `json:"roomPassword,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func toTournamentResponse(t *models.Tournament) tournamentResponse {
	return tournamentResponse{
		ID:              t.ID,
		Name:            t.Name,
		Description:     t.Description,
		Mode:            string(t.Mode),
		Type:            string(t.Type),
		EntryFee:        t.EntryFee,
		PrizePool:       t.PrizePool,
		MaxSlots:        t.MaxSlots,
		RegisteredSlots: t.RegisteredSlots,
		Status:          string(t.Status),
		StartTime:       t.StartTime,
		EndTime:         t.EndTime,
		RoomID:          t.RoomID,
		RoomPassword:    t.RoomPassword,
		CreatedAt:       t.CreatedAt,
	}
}

func (h *handlers) createTournament(w http.ResponseWriter, r *http.Request) {
	var req tournamentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tournament, err := h.tournaments.CreateTournament(r.Context(), service.CreateTournamentInput{
		Name:         req.Name,
		Description:  req.Description,
		Mode:         models.TournamentMode(req.Mode),
		Type:         models.TournamentType(req.Type),
		EntryFee:     req.EntryFee,
		PrizePool:    req.PrizePool,
		MaxSlots:     req.MaxSlots,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		RoomID:       req.RoomID,
		RoomPassword: req.RoomPassword,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTournamentResponse(tournament))
}

func (h *handlers) updateTournament(w http.ResponseWriter, r *http.Request) {
	var req tournamentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tournament := &models.Tournament{
		ID:           chi.URLParam(r, "tournamentID"),
		Name:         req.Name,
		Description:  req.Description,
		Mode:         models.TournamentMode(req.Mode),
		Type:         models.TournamentType(req.Type),
		EntryFee:     req.EntryFee,
		PrizePool:    req.PrizePool,
		MaxSlots:     req.MaxSlots,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		RoomID:       req.RoomID,
		RoomPassword: req.RoomPassword,
	}
	if err := h.tournaments.UpdateTournament(r.Context(), tournament); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *handlers) getTournament(w http.ResponseWriter, r *http.Request) {
	tournament, err := h.tournaments.GetTournament(r.Context(), chi.URLParam(r, "tournamentID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTournamentResponse(tournament))
}

func (h *handlers) listTournaments(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.tournaments.ListTournaments(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]tournamentResponse, 0, len(tournaments))
	for _, t := range tournaments {
		out = append(out, toTournamentResponse(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"tournaments": out})
}

func (h *handlers) cancelTournament(w http.ResponseWriter, r *http.Request) {
	if err := h.tournaments.CancelTournament(r.Context(), chi.URLParam(r, "tournamentID")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *handlers) deleteTournament(w http.ResponseWriter, r *http.Request) {
	if err := h.tournaments.DeleteTournament(r.Context(), chi.URLParam(r, "tournamentID")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type resultsRequest struct {
	Results []struct {
		UserID   string `json:"userId"`
		Position int    `json:"position"`
		Kills    int    `json:"kills"`
		PrizeWon int64  `json:"prizeWon"`
	} `json:"results"`
}

func (h *handlers) recordResults(w http.ResponseWriter, r *http.Request) {
	var req resultsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	results := make([]service.PlayerResult, 0, len(req.Results))
	for _, res := range req.Results {
		results = append(results, service.PlayerResult{
			UserID:   res.UserID,
			Position: res.Position,
			Kills:    res.Kills,
			PrizeWon: res.PrizeWon,
		})
	}

	if err := h.tournaments.RecordResults(r.Context(), chi.URLParam(r, "tournamentID"), results); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type walletRequest struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
}

type amountRequest struct {
	Amount int64 `json:"amount"`
}

type walletResponse struct {
	UserID         string `json:"userId"`
	UserName       string `json:"userName"`
	UserEmail      string `json:"userEmail"`
	Balance        int64  `json:"balance"`
	TotalDeposited int64  `json:"totalDeposited"`
	TotalWithdrawn int64  `json:"totalWithdrawn"`
	TotalEarnings  int64  `json:"totalEarnings"`
}

func toWalletResponse(wallet *models.Wallet) walletResponse {
	return walletResponse{
		UserID:         wallet.UserID,
		UserName:       wallet.UserName,
		UserEmail:      wallet.UserEmail,
		Balance:        wallet.Balance,
		TotalDeposited: wallet.TotalDeposited,
		TotalWithdrawn: wallet.TotalWithdrawn,
		TotalEarnings:  wallet.TotalEarnings,
	}
}

func (h *handlers) createWallet(w http.ResponseWriter, r *http.Request) {
	var req walletRequest
	if !decodeBody(w, r, &req) {
		return
	}

	wallet, err := h.wallets.GetOrCreateWallet(r.Context(), req.UserID, req.UserName, req.UserEmail)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWalletResponse(wallet))
}

func (h *handlers) getWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.wallets.GetWallet(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWalletResponse(wallet))
}

func (h *handlers) deposit(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	wallet, err := h.wallets.Deposit(r.Context(), chi.URLParam(r, "userID"), req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWalletResponse(wallet))
}

func (h *handlers) withdraw(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	wallet, err := h.wallets.Withdraw(r.Context(), chi.URLParam(r, "userID"), req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWalletResponse(wallet))
}

type transactionResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Type           string    `json:"type"`
	Amount         int64     `json:"amount"`
	TournamentID   *string   `json:"tournamentId,omitempty"`
	TournamentName *string   `json:"tournamentName,omitempty"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (h *handlers) listTransactions(w http.ResponseWriter, r *http.Request) {
	const defaultLimit = 50

	txns, err := h.wallets.ListTransactions(r.Context(), chi.URLParam(r, "userID"), defaultLimit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]transactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, transactionResponse{
			ID:             txn.ID,
			UserID:         txn.UserID,
			Type:           string(txn.Type),
			Amount:         txn.Amount,
			TournamentID:   txn.TournamentID,
			TournamentName: txn.TournamentName,
			Description:    txn.Description,
			CreatedAt:      txn.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out})
}
