package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/lingdou-api/internal/api/shared"
	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/mocks"
	"github.com/phrazzld/lingdou-api/internal/platform/memory"
	"github.com/phrazzld/lingdou-api/internal/service/catalog"
	"github.com/phrazzld/lingdou-api/internal/service/ledger"
	"github.com/phrazzld/lingdou-api/internal/service/progress"
	"github.com/phrazzld/lingdou-api/internal/service/shop"
	"github.com/phrazzld/lingdou-api/internal/service/training"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler http.Handler
	userID  uuid.UUID
	uow     *memory.UnitOfWork
}

func newTestServer(t *testing.T, grader *mocks.MockGrader) *testServer {
	t.Helper()
	ctx := context.Background()

	uow := memory.NewUnitOfWork(nil)
	cs := uow.Stores().Catalog
	require.NoError(t, cs.UpsertCategory(ctx, &domain.Category{Name: "Workplace", LinearGating: true}))
	require.NoError(t, cs.UpsertModule(ctx, &domain.Module{Name: "Interviews", CategoryName: "Workplace", LinearGating: true}))
	require.NoError(t, cs.UpsertTopic(ctx, &domain.Topic{
		ID: "self-intro", Name: "Self introduction", ModuleName: "Interviews", Difficulty: domain.DifficultyBeginner,
	}))
	require.NoError(t, cs.UpsertTopic(ctx, &domain.Topic{
		ID: "weakness", Name: "Greatest weakness", ModuleName: "Interviews", Difficulty: domain.DifficultyBeginner, Position: 1,
	}))
	require.NoError(t, uow.Stores().Shop.UpsertProduct(ctx, &domain.Product{ID: "mug", Name: "Mug", Price: 50, Stock: 1}))

	catalogSvc, err := catalog.NewService(cs, nil, 0, nil)
	require.NoError(t, err)
	progressSvc, err := progress.NewService(progress.Deps{UnitOfWork: uow, Catalog: catalogSvc})
	require.NoError(t, err)
	ledgerSvc, err := ledger.NewService(uow, nil, nil)
	require.NoError(t, err)
	shopSvc, err := shop.NewService(uow, nil, nil)
	require.NoError(t, err)
	if grader == nil {
		grader = mocks.NewMockGraderPassing()
	}
	trainingSvc, err := training.NewService(training.Deps{UnitOfWork: uow, Catalog: catalogSvc, Grader: grader})
	require.NoError(t, err)

	userID := uuid.New()
	return &testServer{
		userID: userID,
		uow:    uow,
		handler: NewRouter(RouterDeps{
			JWT:      mocks.NewMockJWTServiceForUser(userID),
			Training: trainingSvc,
			Ledger:   ledgerSvc,
			Progress: progressSvc,
			Shop:     shopSvc,
		}),
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func finishBody(correct, wrong int) FinishSessionRequest {
	req := FinishSessionRequest{TopicRef: "Self introduction"}
	for i := 0; i < correct+wrong; i++ {
		req.Attempts = append(req.Attempts, AttemptRequest{Kind: "choice", Correct: i < correct})
	}
	return req
}

func TestFinishSession(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	sessionID := uuid.New()

	rec := s.do(t, http.MethodPost, "/api/sessions/"+sessionID.String()+"/finish", finishBody(7, 3))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[training.FinishResult](t, rec)
	assert.Equal(t, 70, res.Score.Score)
	assert.Equal(t, 95, res.Score.PointsEarned)
	assert.Equal(t, int64(95), res.Balance)
	assert.Equal(t, domain.MasteryPracticing, res.Progress.MasteryLevel)

	again := s.do(t, http.MethodPost, "/api/sessions/"+sessionID.String()+"/finish", finishBody(7, 3))
	assert.Equal(t, http.StatusConflict, again.Code)

	list := s.do(t, http.MethodGet, "/api/sessions?limit=5", nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Len(t, decode[SessionsResponse](t, list).Sessions, 1)
}

func TestFinishSession_Errors(t *testing.T) {
	t.Parallel()

	voice := FinishSessionRequest{
		TopicRef: "self-intro",
		Attempts: []AttemptRequest{{Kind: "voice", QuestionText: "Why us?", AnswerText: "Because the mission matters to me."}},
	}

	tests := []struct {
		name       string
		path       string
		body       any
		grader     *mocks.MockGrader
		wantStatus int
		wantError  string
		retryable  bool
	}{
		{
			name:       "no attempts",
			body:       FinishSessionRequest{TopicRef: "self-intro"},
			wantStatus: http.StatusBadRequest,
			wantError:  "Training session has no answers",
		},
		{
			name:       "unknown kind",
			body:       FinishSessionRequest{TopicRef: "self-intro", Attempts: []AttemptRequest{{Kind: "essay"}}},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid attempts[0].kind: invalid value",
		},
		{
			name:       "missing topic",
			body:       FinishSessionRequest{Attempts: []AttemptRequest{{Kind: "choice"}}},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid topic_ref: required field",
		},
		{
			name:       "malformed session id",
			path:       "/api/sessions/not-a-uuid/finish",
			body:       finishBody(1, 0),
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request",
		},
		{
			name:       "grader down",
			body:       voice,
			grader:     mocks.NewMockGraderWithError(domain.ErrGradingUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "Answer grading is temporarily unavailable, please retry",
			retryable:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newTestServer(t, tt.grader)
			path := tt.path
			if path == "" {
				path = "/api/sessions/" + uuid.NewString() + "/finish"
			}

			rec := s.do(t, http.MethodPost, path, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			body := decode[shared.ErrorResponse](t, rec)
			assert.Equal(t, tt.wantError, body.Error)
			assert.Equal(t, tt.retryable, body.Retryable)
			assert.NotEmpty(t, body.TraceID)

			txs, err := s.uow.Stores().Ledger.ListTransactions(context.Background(), s.userID, domain.CurrencyPoints, 0)
			require.NoError(t, err)
			assert.Empty(t, txs)
		})
	}
}

func TestLedgerEndpoints(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/ledger/hint", nil)
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "Insufficient balance", decode[shared.ErrorResponse](t, rec).Error)

	rec = s.do(t, http.MethodPost, "/api/ledger/apply", LedgerApplyRequest{Currency: "lingdou", Amount: 3, Reason: "daily check-in"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(3), decode[ledger.Result](t, rec).NewBalance)

	rec = s.do(t, http.MethodPost, "/api/ledger/hint", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), decode[ledger.Result](t, rec).NewBalance)

	rec = s.do(t, http.MethodGet, "/api/ledger/transactions?currency=lingdou", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[TransactionsResponse](t, rec)
	require.Len(t, page.Transactions, 2)
	assert.NoError(t, domain.VerifyReplay(page.Transactions, 2))

	rec = s.do(t, http.MethodGet, "/api/ledger/balances", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[BalancesResponse](t, rec).Balances)

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
	}{
		{name: "zero amount", method: http.MethodPost, path: "/api/ledger/apply",
			body: LedgerApplyRequest{Currency: "points", Reason: "x"}, wantStatus: http.StatusBadRequest},
		{name: "unknown currency", method: http.MethodPost, path: "/api/ledger/apply",
			body: LedgerApplyRequest{Currency: "gold", Amount: 1, Reason: "x"}, wantStatus: http.StatusBadRequest},
		{name: "overdraw", method: http.MethodPost, path: "/api/ledger/apply",
			body: LedgerApplyRequest{Currency: "lingdou", Amount: -5, Reason: "x"}, wantStatus: http.StatusPaymentRequired},
		{name: "bad currency filter", method: http.MethodGet, path: "/api/ledger/transactions?currency=gold",
			wantStatus: http.StatusBadRequest},
		{name: "bad limit", method: http.MethodGet, path: "/api/ledger/transactions?limit=0",
			wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestProgressEndpoints(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	self := s.userID.String()

	rec := s.do(t, http.MethodGet, "/api/progress/"+self+"/"+url.PathEscape("Self introduction"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[progress.View](t, rec)
	assert.Equal(t, "self-intro", view.Topic.ID)
	assert.Equal(t, domain.MasteryNotStarted, view.Progress.MasteryLevel)

	rec = s.do(t, http.MethodPost, "/api/topics/self-intro/learned", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[progress.View](t, rec).Progress.KnowledgeLearned)

	rec = s.do(t, http.MethodGet, "/api/unlock-map/"+self+"/Interviews", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	m := decode[progress.ModuleMap](t, rec)
	require.Len(t, m.Topics, 2)
	assert.Equal(t, 1, m.Aggregate.Learned)

	rec = s.do(t, http.MethodGet, "/api/category-map/"+self+"/Workplace", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[progress.CategoryMap](t, rec).Modules, 1)

	rec = s.do(t, http.MethodGet, "/api/unlock-map/"+self+"/Nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/sessions/"+uuid.NewString()+"/finish", finishBody(10, 0))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/leaderboard?sort=total_trainings&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	board := decode[LeaderboardResponse](t, rec)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, s.userID, board.Entries[0].UserID)

	rec = s.do(t, http.MethodGet, "/api/leaderboard?sort=luck", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkLearned_ScopedReference(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	ref := url.PathEscape("Salary talk")
	scope := "?category=Workplace&module=Interviews"

	rec := s.do(t, http.MethodPost, "/api/topics/"+ref+"/learned"+scope, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	learned := decode[progress.View](t, rec)
	assert.True(t, learned.Topic.Synthetic)

	rec = s.do(t, http.MethodGet, "/api/progress/"+s.userID.String()+"/"+ref+scope, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[progress.View](t, rec)
	assert.Equal(t, learned.Topic.ID, view.Topic.ID)
	assert.True(t, view.Progress.KnowledgeLearned)
}

func TestProgressEndpoints_OtherUserForbidden(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	other := uuid.NewString()

	for _, path := range []string{
		"/api/progress/" + other + "/self-intro",
		"/api/unlock-map/" + other + "/Interviews",
		"/api/category-map/" + other + "/Workplace",
	} {
		rec := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}

	rec := s.do(t, http.MethodGet, "/api/progress/me/self-intro", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShopEndpoints(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/shop/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[ProductsResponse](t, rec).Products, 1)

	rec = s.do(t, http.MethodPost, "/api/shop/products/mug/exchange", nil)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/ledger/apply", LedgerApplyRequest{Currency: "points", Amount: 120, Reason: "bonus"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/shop/products/mug/exchange", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, int64(70), decode[shop.Receipt](t, rec).Balance)

	rec = s.do(t, http.MethodPost, "/api/shop/products/mug/exchange", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/shop/products/poster/exchange", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/shop/exchanges", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[ExchangesResponse](t, rec).Exchanges, 1)
}

func TestUnauthenticated(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/ledger/balances", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	NewRouter(RouterDeps{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	NewRouter(RouterDeps{Ping: func(context.Context) error { return errors.New("down") }}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
