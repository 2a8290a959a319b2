package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ffarena/models"
	"ffarena/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Function-field stubs keep each test focused on the one call it cares about.
type stubRegistrationService struct {
	registerFn   func(ctx context.Context, input service.RegisterPlayerInput) (*models.Registration, error)
	unregisterFn func(ctx context.Context, userID, tournamentID string) error
}

func (s *stubRegistrationService) RegisterPlayer(ctx context.Context, input service.RegisterPlayerInput) (*models.Registration, error) {
	return s.registerFn(ctx, input)
}

func (s *stubRegistrationService) UnregisterPlayer(ctx context.Context, userID, tournamentID string) error {
	return s.unregisterFn(ctx, userID, tournamentID)
}

func (s *stubRegistrationService) GetRegistration(context.Context, string, string) (*models.Registration, error) {
	return nil, service.ErrRegistrationNotFound
}

func (s *stubRegistrationService) ListTournamentRegistrations(context.Context, string) ([]*models.Registration, error) {
	return nil, nil
}

func (s *stubRegistrationService) ListUserRegistrations(context.Context, string) ([]*models.Registration, error) {
	return nil, nil
}

type stubLifecycleService struct {
	updateFn func(ctx context.Context) (*models.LifecycleResult, error)
}

func (s *stubLifecycleService) UpdateTournamentStates(ctx context.Context) (*models.LifecycleResult, error) {
	return s.updateFn(ctx)
}

type stubWalletService struct {
	getFn func(ctx context.Context, userID string) (*models.Wallet, error)
}

func (s *stubWalletService) GetOrCreateWallet(context.Context, string, string, string) (*models.Wallet, error) {
	return nil, nil
}

func (s *stubWalletService) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	return s.getFn(ctx, userID)
}

func (s *stubWalletService) Deposit(context.Context, string, int64) (*models.Wallet, error) {
	return nil, nil
}

func (s *stubWalletService) Withdraw(context.Context, string, int64) (*models.Wallet, error) {
	return nil, nil
}

func (s *stubWalletService) ListTransactions(context.Context, string, int) ([]*models.WalletTransaction, error) {
	return nil, nil
}

func newTestRouter(reg service.RegistrationService, lc service.LifecycleService, wallets service.WalletService) http.Handler {
	if reg == nil {
		reg = &stubRegistrationService{}
	}
	if lc == nil {
		lc = &stubLifecycleService{updateFn: func(context.Context) (*models.LifecycleResult, error) {
			return &models.LifecycleResult{}, nil
		}}
	}
	if wallets == nil {
		wallets = &stubWalletService{}
	}
	return NewRouter(reg, lc, wallets, nil)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestUpdateTournamentStatesEndpoint(t *testing.T) {
	t.Run("reports sweep counts on both verbs", func(t *testing.T) {
		lc := &stubLifecycleService{updateFn: func(context.Context) (*models.LifecycleResult, error) {
			return &models.LifecycleResult{
				Updated:             4,
				StartedCount:        2,
				CompletedCount:      1,
				AwaitingPayoutCount: 1,
			}, nil
		}}
		router := newTestRouter(nil, lc, nil)

		for _, method := range []string{http.MethodGet, http.MethodPost} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(method, "/api/update-tournament-states", nil))

			require.Equal(t, http.StatusOK, rec.Code, method)
			body := decodeResponse(t, rec)
			assert.Equal(t, true, body["success"])
			assert.Equal(t, float64(4), body["updated"])
			assert.Equal(t, float64(2), body["startedCount"])
			assert.Equal(t, float64(1), body["completedCount"])
			assert.Equal(t, float64(1), body["awaitingPayoutCount"])
			assert.NotEmpty(t, body["timestamp"])
		}
	})

	t.Run("sweep failure returns 500 with success false", func(t *testing.T) {
		lc := &stubLifecycleService{updateFn: func(context.Context) (*models.LifecycleResult, error) {
			return nil, errors.New("connection reset")
		}}
		router := newTestRouter(nil, lc, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/update-tournament-states", nil))

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeResponse(t, rec)
		assert.Equal(t, false, body["success"])
		assert.NotEmpty(t, body["error"])
		assert.NotEmpty(t, body["timestamp"])
	})
}

func TestRegisterEndpoint(t *testing.T) {
	registerBody := `{"userId":"user-1","userName":"ShadowSniper","userEmail":"shadow@example.com"}`

	post := func(router http.Handler) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/tournaments/tour-1/register", strings.NewReader(registerBody))
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("created", func(t *testing.T) {
		slot := 11
		reg := &stubRegistrationService{registerFn: func(_ context.Context, input service.RegisterPlayerInput) (*models.Registration, error) {
			assert.Equal(t, "tour-1", input.TournamentID)
			assert.Equal(t, "user-1", input.UserID)
			return &models.Registration{
				ID:           "reg-1",
				UserID:       input.UserID,
				TournamentID: input.TournamentID,
				EntryFeePaid: 50,
				SlotNumber:   &slot,
			}, nil
		}}

		rec := post(newTestRouter(reg, nil, nil))

		require.Equal(t, http.StatusCreated, rec.Code)
		body := decodeResponse(t, rec)
		assert.Equal(t, "reg-1", body["id"])
		assert.Equal(t, float64(50), body["entryFeePaid"])
	})

	t.Run("full and already registered are distinct conflicts", func(t *testing.T) {
		cases := []struct {
			err  error
			code string
		}{
			{service.ErrTournamentFull, "tournament_full"},
			{service.ErrAlreadyRegistered, "already_registered"},
		}
		for _, tc := range cases {
			reg := &stubRegistrationService{registerFn: func(context.Context, service.RegisterPlayerInput) (*models.Registration, error) {
				return nil, tc.err
			}}
			rec := post(newTestRouter(reg, nil, nil))

			require.Equal(t, http.StatusConflict, rec.Code)
			assert.Equal(t, tc.code, decodeResponse(t, rec)["error"])
		}
	})

	t.Run("insufficient balance includes shortfall", func(t *testing.T) {
		reg := &stubRegistrationService{registerFn: func(context.Context, service.RegisterPlayerInput) (*models.Registration, error) {
			return nil, &service.InsufficientBalanceError{Balance: 30, Required: 50}
		}}
		rec := post(newTestRouter(reg, nil, nil))

		require.Equal(t, http.StatusPaymentRequired, rec.Code)
		body := decodeResponse(t, rec)
		assert.Equal(t, "insufficient_balance", body["error"])
		assert.Equal(t, float64(30), body["balance"])
		assert.Equal(t, float64(50), body["required"])
		assert.Equal(t, float64(20), body["shortfall"])
	})

	t.Run("missing tournament is 404", func(t *testing.T) {
		reg := &stubRegistrationService{registerFn: func(context.Context, service.RegisterPlayerInput) (*models.Registration, error) {
			return nil, service.ErrTournamentNotFound
		}}
		rec := post(newTestRouter(reg, nil, nil))

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "tournament_not_found", decodeResponse(t, rec)["error"])
	})

	t.Run("exhausted retries are 503", func(t *testing.T) {
		reg := &stubRegistrationService{registerFn: func(context.Context, service.RegisterPlayerInput) (*models.Registration, error) {
			return nil, service.ErrUnavailable
		}}
		rec := post(newTestRouter(reg, nil, nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "temporarily_unavailable", decodeResponse(t, rec)["error"])
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		router := newTestRouter(&stubRegistrationService{}, nil, nil)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/tournaments/tour-1/register", strings.NewReader("{"))
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "malformed_body", decodeResponse(t, rec)["error"])
	})
}

func TestUnregisterEndpoint(t *testing.T) {
	t.Run("requires userId query parameter", func(t *testing.T) {
		router := newTestRouter(&stubRegistrationService{}, nil, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/tournaments/tour-1/register", nil))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "validation_error", decodeResponse(t, rec)["error"])
	})

	t.Run("success", func(t *testing.T) {
		reg := &stubRegistrationService{unregisterFn: func(_ context.Context, userID, tournamentID string) error {
			assert.Equal(t, "user-1", userID)
			assert.Equal(t, "tour-1", tournamentID)
			return nil
		}}
		router := newTestRouter(reg, nil, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/tournaments/tour-1/register?userId=user-1", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, decodeResponse(t, rec)["success"])
	})

	t.Run("not registered is 404", func(t *testing.T) {
		reg := &stubRegistrationService{unregisterFn: func(context.Context, string, string) error {
			return service.ErrRegistrationNotFound
		}}
		router := newTestRouter(reg, nil, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/tournaments/tour-1/register?userId=user-1", nil))

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "registration_not_found", decodeResponse(t, rec)["error"])
	})
}

func TestWalletEndpoints(t *testing.T) {
	t.Run("missing wallet is 404", func(t *testing.T) {
		wallets := &stubWalletService{getFn: func(context.Context, string) (*models.Wallet, error) {
			return nil, service.ErrWalletNotFound
		}}
		router := newTestRouter(nil, nil, wallets)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/wallets/user-1", nil))

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "wallet_not_found", decodeResponse(t, rec)["error"])
	})

	t.Run("returns wallet", func(t *testing.T) {
		wallets := &stubWalletService{getFn: func(_ context.Context, userID string) (*models.Wallet, error) {
			return &models.Wallet{UserID: userID, Balance: 350, TotalDeposited: 500}, nil
		}}
		router := newTestRouter(nil, nil, wallets)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/wallets/user-1", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeResponse(t, rec)
		assert.Equal(t, "user-1", body["userId"])
		assert.Equal(t, float64(350), body["balance"])
	})
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(nil, nil, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeResponse(t, rec)["status"])
}
