package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"csi-api/internal/domain"
	"csi-api/internal/metrics"
	"csi-api/internal/repository"
)

// TestSessionService gobierna el ciclo de vida de un test CSI:
// iniciado -> completado, con un unico envio de respuestas por test.
type TestSessionService struct {
	logger  *zap.Logger
	tests   repository.TestSessionRepository
	scoring *ScoringService
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewTestSessionService(logger *zap.Logger, tests repository.TestSessionRepository, scoring *ScoringService, m *metrics.Metrics) *TestSessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if scoring == nil {
		scoring = NewScoringService(logger)
	}
	return &TestSessionService{
		logger:  logger,
		tests:   tests,
		scoring: scoring,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SubmitInput es el unico envio de respuestas de un test.
type SubmitInput struct {
	Responses      domain.ResponseSet
	CopingCapacity *int
}

func (s *TestSessionService) OpenSession(ctx context.Context, ownerID, stressContext string) (domain.TestSession, error) {
	length := utf8.RuneCountInString(stressContext)
	if length < domain.MinContextLength || length > domain.MaxContextLength {
		return domain.TestSession{}, domain.NewValidationError(fmt.Sprintf(
			"stressful situation must be between %d and %d characters, got %d",
			domain.MinContextLength, domain.MaxContextLength, length,
		))
	}

	session := domain.TestSession{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Context:   stressContext,
		StartedAt: s.now(),
	}
	if err := s.tests.Create(ctx, session); err != nil {
		return domain.TestSession{}, fmt.Errorf("create test session: %w", err)
	}

	s.metrics.SessionOpened()
	s.logger.Info("test session opened", zap.String("test_id", session.ID), zap.String("user_id", ownerID))
	return session, nil
}

func (s *TestSessionService) SubmitResponses(ctx context.Context, testID, ownerID string, input SubmitInput) (domain.ScoreResult, error) {
	session, err := s.ownedSession(ctx, testID, ownerID)
	if err != nil {
		s.rejected(err)
		return domain.ScoreResult{}, err
	}
	if session.IsCompleted() {
		s.metrics.SubmissionRejected("conflict")
		return domain.ScoreResult{}, fmt.Errorf("%w: test %s already completed", domain.ErrConflict, testID)
	}
	if err := validateSubmission(input); err != nil {
		s.metrics.SubmissionRejected("validation")
		return domain.ScoreResult{}, err
	}

	result, err := s.scoring.Score(input.Responses)
	if err != nil {
		return domain.ScoreResult{}, err
	}

	completion := domain.Completion{
		CompletedAt:    s.now(),
		CopingCapacity: input.CopingCapacity,
		Responses:      input.Responses,
		Result:         result,
	}
	if err := s.tests.Complete(ctx, testID, completion); err != nil {
		if errors.Is(err, repository.ErrTestAlreadyCompleted) {
			s.metrics.SubmissionRejected("conflict")
			return domain.ScoreResult{}, fmt.Errorf("%w: test %s already completed", domain.ErrConflict, testID)
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ScoreResult{}, fmt.Errorf("%w: test %s", domain.ErrNotFound, testID)
		}
		return domain.ScoreResult{}, fmt.Errorf("complete test session: %w", err)
	}

	s.metrics.SessionCompleted(result)
	s.logger.Info("test session completed",
		zap.String("test_id", testID),
		zap.String("user_id", ownerID),
		zap.Int("high_count", result.Summary.HighCount),
		zap.Int("medium_count", result.Summary.MediumCount),
		zap.Int("low_count", result.Summary.LowCount),
	)
	return result, nil
}

// GetResults devuelve el test completado con su resultado almacenado.
func (s *TestSessionService) GetResults(ctx context.Context, testID, ownerID string) (domain.TestSession, error) {
	session, err := s.ownedSession(ctx, testID, ownerID)
	if err != nil {
		return domain.TestSession{}, err
	}
	if !session.IsCompleted() {
		return domain.TestSession{}, domain.NewValidationError(fmt.Sprintf("test %s has not been completed yet", testID))
	}
	return session, nil
}

// ListSessions devuelve el historial del usuario en orden de creacion.
func (s *TestSessionService) ListSessions(ctx context.Context, ownerID string) ([]domain.TestSummary, error) {
	sessions, err := s.tests.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list test sessions: %w", err)
	}
	summaries := make([]domain.TestSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, session.Summary())
	}
	return summaries, nil
}

func (s *TestSessionService) ownedSession(ctx context.Context, testID, ownerID string) (domain.TestSession, error) {
	session, err := s.tests.GetByID(ctx, testID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TestSession{}, fmt.Errorf("%w: test %s", domain.ErrNotFound, testID)
		}
		return domain.TestSession{}, fmt.Errorf("get test session: %w", err)
	}
	if session.OwnerID != ownerID {
		return domain.TestSession{}, fmt.Errorf("%w: test %s belongs to another user", domain.ErrForbidden, testID)
	}
	return session, nil
}

func (s *TestSessionService) rejected(err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.metrics.SubmissionRejected("not_found")
	case errors.Is(err, domain.ErrForbidden):
		s.metrics.SubmissionRejected("forbidden")
	}
}

func validateSubmission(input SubmitInput) error {
	if input.CopingCapacity != nil {
		rating := *input.CopingCapacity
		if rating < domain.MinCopingRating || rating > domain.MaxCopingRating {
			return domain.NewValidationError(fmt.Sprintf(
				"coping capacity must be between %d and %d, got %d",
				domain.MinCopingRating, domain.MaxCopingRating, rating,
			))
		}
	}

	if input.Responses == nil {
		return domain.NewValidationError(fmt.Sprintf(
			"responses must map item numbers 1-%d to integer values", domain.ItemCount,
		))
	}
	if len(input.Responses) != domain.ItemCount {
		return domain.NewValidationError(fmt.Sprintf(
			"expected %d responses, received %d", domain.ItemCount, len(input.Responses),
		))
	}

	var unknown, outOfRange []int
	for item, value := range input.Responses {
		switch {
		case item < 1 || item > domain.ItemCount:
			unknown = append(unknown, item)
		case value < domain.MinItemValue || value > domain.MaxItemValue:
			outOfRange = append(outOfRange, item)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return domain.NewValidationError(fmt.Sprintf("item numbers must be between 1 and %d", domain.ItemCount), unknown...)
	}
	if len(outOfRange) > 0 {
		slices.Sort(outOfRange)
		return domain.NewValidationError(fmt.Sprintf(
			"responses must be between %d and %d", domain.MinItemValue, domain.MaxItemValue,
		), outOfRange...)
	}
	return nil
}
