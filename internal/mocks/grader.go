package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/platform/grader"
)

// MockGrader implements grader.Grader for testing. It is safe for the
// concurrent calls a session makes while grading.
type MockGrader struct {
	// GradeFn allows test cases to mock the Grade behavior
	GradeFn func(ctx context.Context, req grader.GradeRequest) (domain.GradeResult, error)

	// Default response values
	Result domain.GradeResult
	Err    error

	// Call tracking for verification
	GradeCalls struct {
		mu       sync.Mutex
		Count    int
		Requests []grader.GradeRequest
	}
}

var _ grader.Grader = (*MockGrader)(nil)

// Grade implements the grader.Grader interface
func (m *MockGrader) Grade(ctx context.Context, req grader.GradeRequest) (domain.GradeResult, error) {
	m.GradeCalls.mu.Lock()
	m.GradeCalls.Count++
	m.GradeCalls.Requests = append(m.GradeCalls.Requests, req)
	m.GradeCalls.mu.Unlock()

	if m.GradeFn != nil {
		return m.GradeFn(ctx, req)
	}
	return m.Result, m.Err
}

// Calls returns how many times Grade was called.
func (m *MockGrader) Calls() int {
	m.GradeCalls.mu.Lock()
	defer m.GradeCalls.mu.Unlock()
	return m.GradeCalls.Count
}

// NewMockGraderPassing returns a MockGrader whose every verdict is a pass.
func NewMockGraderPassing() *MockGrader {
	return &MockGrader{Result: Verdict(true)}
}

// NewMockGraderWithError returns a MockGrader that fails every call.
func NewMockGraderWithError(err error) *MockGrader {
	return &MockGrader{Err: err}
}

// Verdict builds a well-formed grade with mid-range rubric scores.
func Verdict(passed bool) domain.GradeResult {
	rubric := make(map[string]int, len(domain.RubricDimensions))
	for _, d := range domain.RubricDimensions {
		rubric[d] = 3
	}
	return domain.GradeResult{
		Passed:   passed,
		Rubric:   rubric,
		Comment:  "Reasonable answer.",
		Strength: "Stays on topic.",
		Weakness: "Needs a concrete example.",
	}
}
