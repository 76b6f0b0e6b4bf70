package domain

import "time"

// TestState es el estado del ciclo de vida de un test.
type TestState string

const (
	TestStateInitiated TestState = "initiated"
	TestStateCompleted TestState = "completed"
)

const (
	MinContextLength = 10
	MaxContextLength = 2000
	MinCopingRating  = 0
	MaxCopingRating  = 4
)

// TestSession es un intento del cuestionario. Mientras Completion es nil el
// test esta iniciado; respuestas y resultado solo existen dentro de Completion.
type TestSession struct {
	ID         string      `json:"test_id"`
	OwnerID    string      `json:"-"`
	Context    string      `json:"stressful_situation"`
	StartedAt  time.Time   `json:"started_at"`
	Completion *Completion `json:"completion,omitempty"`
}

// Completion agrupa todo lo que se adjunta en el unico envio permitido.
type Completion struct {
	CompletedAt    time.Time   `json:"completed_at"`
	CopingCapacity *int        `json:"coping_capacity,omitempty"`
	Responses      ResponseSet `json:"responses"`
	Result         ScoreResult `json:"results"`
}

func (s TestSession) State() TestState {
	if s.Completion != nil {
		return TestStateCompleted
	}
	return TestStateInitiated
}

func (s TestSession) IsCompleted() bool {
	return s.Completion != nil
}

// TestSummary es la vista de historial de un test.
type TestSummary struct {
	ID          string     `json:"test_id"`
	StartedAt   time.Time  `json:"started_at"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (s TestSession) Summary() TestSummary {
	summary := TestSummary{
		ID:        s.ID,
		StartedAt: s.StartedAt,
		Completed: s.IsCompleted(),
	}
	if s.Completion != nil {
		completedAt := s.Completion.CompletedAt
		summary.CompletedAt = &completedAt
	}
	return summary
}
