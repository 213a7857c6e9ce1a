package api

import (
	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/domain/resolver"
	"github.com/phrazzld/lingdou-api/internal/service/training"
)

// AttemptRequest is one answered question of a finished session.
type AttemptRequest struct {
	QuestionID     string `json:"question_id"     validate:"max=100"`
	Kind           string `json:"kind"            validate:"required,oneof=choice voice"`
	Correct        bool   `json:"correct"`
	DifficultyTier int    `json:"difficulty_tier" validate:"gte=0,lte=5"`
	QuestionText   string `json:"question_text"   validate:"required_if=Kind voice,max=2000"`
	ModelAnswer    string `json:"model_answer"    validate:"max=4000"`
	AnswerText     string `json:"answer_text"     validate:"max=4000"`
}

// FinishSessionRequest is the payload of POST /api/sessions/{id}/finish.
// Category and Module scope the topic reference when it is ambiguous.
type FinishSessionRequest struct {
	TopicRef string           `json:"topic_ref" validate:"required,max=200"`
	Category string           `json:"category"  validate:"max=200"`
	Module   string           `json:"module"    validate:"max=200"`
	Attempts []AttemptRequest `json:"attempts"  validate:"max=100,dive"`
}

func (r FinishSessionRequest) toService() training.FinishRequest {
	attempts := make([]domain.Attempt, len(r.Attempts))
	for i, a := range r.Attempts {
		// Any client-side grade is ignored: voice answers are graded here.
		attempts[i] = domain.Attempt{
			QuestionID:     a.QuestionID,
			Kind:           domain.AttemptKind(a.Kind),
			Correct:        a.Correct,
			DifficultyTier: a.DifficultyTier,
			QuestionText:   a.QuestionText,
			ModelAnswer:    a.ModelAnswer,
			AnswerText:     a.AnswerText,
		}
	}
	return training.FinishRequest{
		TopicRef: r.TopicRef,
		Scope:    resolver.Scope{Category: r.Category, Module: r.Module},
		Attempts: attempts,
	}
}

// LedgerApplyRequest is the payload of POST /api/ledger/apply.
type LedgerApplyRequest struct {
	Currency string `json:"currency" validate:"required,oneof=points lingdou"`
	Amount   int64  `json:"amount"   validate:"ne=0"`
	Reason   string `json:"reason"   validate:"required,max=200"`
}

// BalancesResponse lists the caller's balances.
type BalancesResponse struct {
	Balances []domain.LedgerAccount `json:"balances"`
}

// TransactionsResponse is a page of ledger transactions.
type TransactionsResponse struct {
	Currency     domain.Currency            `json:"currency"`
	Transactions []domain.LedgerTransaction `json:"transactions"`
}

// SessionsResponse is a page of finished sessions.
type SessionsResponse struct {
	Sessions []domain.TrainingSession `json:"sessions"`
}

// ProductsResponse lists the shop.
type ProductsResponse struct {
	Products []domain.Product `json:"products"`
}

// ExchangesResponse lists the caller's exchanges.
type ExchangesResponse struct {
	Exchanges []domain.Exchange `json:"exchanges"`
}

// LeaderboardResponse is a ranked page of users.
type LeaderboardResponse struct {
	SortBy  domain.LeaderboardSort    `json:"sort_by"`
	Entries []domain.LeaderboardEntry `json:"entries"`
}
