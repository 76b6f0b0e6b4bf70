package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"csi-api/internal/domain"
	"csi-api/internal/service"
)

// TestHandler expone el ciclo de vida del test CSI.
type TestHandler struct {
	logger   *zap.Logger
	sessions *service.TestSessionService
}

func NewTestHandler(logger *zap.Logger, sessions *service.TestSessionService) *TestHandler {
	return &TestHandler{
		logger:   logger,
		sessions: sessions,
	}
}

// OpenSession maneja POST /tests.
func (h *TestHandler) OpenSession(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req struct {
		StressfulSituation string `json:"stressful_situation" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid open test request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session, err := h.sessions.OpenSession(c.Request.Context(), owner, req.StressfulSituation)
	if err != nil {
		h.writeError(c, "open test failed", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"test_id":   session.ID,
		"message":   "Test iniciado exitosamente",
		"next_step": "Responder las 40 preguntas usando POST /tests/" + session.ID + "/responses",
	})
}

// SubmitResponses maneja POST /tests/:id/responses.
func (h *TestHandler) SubmitResponses(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	type submitRequest struct {
		Responses      map[int]int `json:"responses"`
		CopingCapacity *int        `json:"coping_capacity"`
	}
	var req submitRequest
	// Un cuerpo ilegible llega al servicio sin respuestas: un test ya completado
	// debe contestar 409 aunque el payload sea invalido.
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid submit responses request", zap.Error(err))
		req = submitRequest{}
	}

	testID := c.Param("id")
	result, err := h.sessions.SubmitResponses(c.Request.Context(), testID, owner, service.SubmitInput{
		Responses:      domain.ResponseSet(req.Responses),
		CopingCapacity: req.CopingCapacity,
	})
	if err != nil {
		h.writeError(c, "submit responses failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"test_id": testID,
		"message": "Test completado exitosamente",
		"results": result,
	})
}

// GetResults maneja GET /tests/:id/results.
func (h *TestHandler) GetResults(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	session, err := h.sessions.GetResults(c.Request.Context(), c.Param("id"), owner)
	if err != nil {
		h.writeError(c, "get results failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"test_id":             session.ID,
		"stressful_situation": session.Context,
		"completed_at":        session.Completion.CompletedAt,
		"coping_capacity":     session.Completion.CopingCapacity,
		"results":             session.Completion.Result,
	})
}

// ListSessions maneja GET /tests.
func (h *TestHandler) ListSessions(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	summaries, err := h.sessions.ListSessions(c.Request.Context(), owner)
	if err != nil {
		h.writeError(c, "list tests failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_tests": len(summaries),
		"tests":       summaries,
	})
}

// GetQuestions maneja GET /tests/questions; es publico.
func (h *TestHandler) GetQuestions(c *gin.Context) {
	scale := make([]gin.H, 0, len(domain.ResponseScale))
	for value, label := range domain.ResponseScale {
		scale = append(scale, gin.H{"value": value, "label": label})
	}
	questions := domain.Questions()
	c.JSON(http.StatusOK, gin.H{
		"total_questions": len(questions),
		"scale":           scale,
		"questions":       questions,
	})
}

// writeError traduce la taxonomia de errores del dominio a status HTTP.
func (h *TestHandler) writeError(c *gin.Context, msg string, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		body := gin.H{"error": vErr.Reason}
		if len(vErr.Items) > 0 {
			body["items"] = vErr.Items
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "test not found"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "test belongs to another user"})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "test already completed"})
	default:
		h.logger.Error(msg, zap.Error(err), zap.String("test_id", c.Param("id")))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
