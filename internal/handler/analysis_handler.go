package handler

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coach-api/internal/dto"
	"github.com/noah-isme/coach-api/internal/middleware"
	"github.com/noah-isme/coach-api/internal/service"
	"github.com/noah-isme/coach-api/internal/utils"
)

const maxUploadBytes = 100_000

var languageByExtension = map[string]string{
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".py":    "python",
	".go":    "go",
	".java":  "java",
	".kt":    "kotlin",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".rb":    "ruby",
	".rs":    "rust",
	".swift": "swift",
	".php":   "php",
	".scala": "scala",
	".sql":   "sql",
}

// AnalysisHandler exposes the coaching workspace: analysis, follow-up chat and session state.
type AnalysisHandler struct {
	analysis  service.AnalysisService
	sessions  service.SessionService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAnalysisHandler constructs the coaching handler.
func NewAnalysisHandler(analysis service.AnalysisService, sessions service.SessionService, validate *validator.Validate, logger zerolog.Logger) *AnalysisHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &AnalysisHandler{
		analysis:  analysis,
		sessions:  sessions,
		validator: validate,
		logger:    logger.With().Str("component", "analysis_handler").Logger(),
	}
}

// Register wires the analysis routes. limit guards the model-backed endpoints.
func (h *AnalysisHandler) Register(router fiber.Router, limit fiber.Handler) {
	if limit == nil {
		limit = func(c *fiber.Ctx) error { return c.Next() }
	}
	router.Post("/analyze", limit, h.analyze)
	router.Post("/analyze/upload", limit, h.analyzeUpload)
	router.Post("/chat", limit, h.chat)
	router.Get("/session", h.getSession)
	router.Put("/session", h.updateSession)
	router.Delete("/session", h.resetSession)
}

func (h *AnalysisHandler) analyze(c *fiber.Ctx) error {
	var req dto.AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	return h.runAnalysis(c, req)
}

func (h *AnalysisHandler) analyzeUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}
	if file.Size > maxUploadBytes {
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "file exceeds maximum allowed size")
	}

	handle, err := file.Open()
	if err != nil {
		return respondError(c, h.logger, err, "failed to read upload")
	}
	defer handle.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(handle, maxUploadBytes+1)); err != nil {
		return respondError(c, h.logger, err, "failed to read upload")
	}
	if buf.Len() > maxUploadBytes {
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "file exceeds maximum allowed size")
	}

	if !isTextMIME(mimetype.Detect(buf.Bytes())) {
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, "only text source files are accepted")
	}

	language := strings.TrimSpace(c.FormValue("language"))
	if language == "" {
		language = languageByExtension[strings.ToLower(filepath.Ext(file.Filename))]
	}

	return h.runAnalysis(c, dto.AnalyzeRequest{Code: buf.String(), Language: language})
}

func (h *AnalysisHandler) runAnalysis(c *fiber.Ctx, req dto.AnalyzeRequest) error {
	ctx := requestContext(c)
	key := sessionKey(c)

	session, err := h.sessions.Load(ctx, key)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load session")
	}

	response, err := h.analysis.RunAnalysis(ctx, &session, middleware.UserID(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to analyze code")
	}

	if err := h.sessions.Save(ctx, key, session); err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("failed to store session after analysis")
	}

	return utils.SendSuccess(c, "analysis completed", response)
}

func (h *AnalysisHandler) chat(c *fiber.Ctx) error {
	var req dto.FollowUpRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	ctx := requestContext(c)
	key := sessionKey(c)

	session, err := h.sessions.Load(ctx, key)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load session")
	}

	response, err := h.analysis.AskFollowUp(ctx, &session, key, req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to answer question")
	}

	if err := h.sessions.SaveIfUnchanged(ctx, key, session); err != nil {
		if errors.Is(err, service.ErrSessionConflict) {
			requestLogger(h.logger, c).Info().Msg("session rewritten while the answer was generated")
			return respondError(c, h.logger, err, "failed to store answer")
		}
		requestLogger(h.logger, c).Warn().Err(err).Msg("failed to store session after chat")
	}

	return utils.SendSuccess(c, "answer generated", response)
}

func (h *AnalysisHandler) getSession(c *fiber.Ctx) error {
	session, err := h.sessions.Load(requestContext(c), sessionKey(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load session")
	}
	return utils.SendSuccess(c, "session retrieved", session)
}

func (h *AnalysisHandler) updateSession(c *fiber.Ctx) error {
	var req dto.SessionUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, h.logger, err, "invalid session update")
	}

	ctx := requestContext(c)
	key := sessionKey(c)

	session, err := h.sessions.Load(ctx, key)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load session")
	}
	if req.Code != nil {
		session.Code = *req.Code
	}
	if req.Language != nil {
		session.Language = service.NormalizeLanguage(*req.Language)
	}
	session.UpdatedAt = time.Now().UTC()

	if err := h.sessions.Save(ctx, key, session); err != nil {
		return respondError(c, h.logger, err, "failed to store session")
	}
	return utils.SendSuccess(c, "session updated", session)
}

func (h *AnalysisHandler) resetSession(c *fiber.Ctx) error {
	session, err := h.sessions.Reset(requestContext(c), sessionKey(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to reset session")
	}
	return utils.SendSuccess(c, "session reset", session)
}

func isTextMIME(detected *mimetype.MIME) bool {
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
