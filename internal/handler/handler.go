package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/BarkinBalci/event-board-service/docs"
	"github.com/BarkinBalci/event-board-service/internal/config"
	"github.com/BarkinBalci/event-board-service/internal/dto"
	"github.com/BarkinBalci/event-board-service/internal/metrics"
	"github.com/BarkinBalci/event-board-service/internal/notifier"
	"github.com/BarkinBalci/event-board-service/internal/service"
)

const (
	defaultMaxUploadBytes = 10 << 20
	// formOverheadBytes covers the text fields and part headers around the image
	formOverheadBytes = 1 << 20
)

var registerValidators sync.Once

// Options configures request handling policies
type Options struct {
	Upload          config.Upload
	StreamHeartbeat time.Duration
}

type Handler struct {
	eventService service.EventServicer
	notifier     notifier.EventNotifier
	hub          notifier.StreamHub
	metrics      *metrics.Metrics
	options      Options
	router       *gin.Engine
	log          *zap.Logger
}

func NewHandler(
	eventService service.EventServicer,
	eventNotifier notifier.EventNotifier,
	hub notifier.StreamHub,
	m *metrics.Metrics,
	options Options,
	log *zap.Logger,
) *Handler {
	registerValidators.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			mustRegisterValidation(v, "notblank", validators.NotBlank, log)
		}
	})

	if options.Upload.MaxBytes <= 0 {
		options.Upload.MaxBytes = defaultMaxUploadBytes
	}
	if options.StreamHeartbeat <= 0 {
		options.StreamHeartbeat = 30 * time.Second
	}

	router := gin.New()
	router.Use(gin.Recovery(), m.Middleware())
	// Bytes beyond this spill to temp files; the upload cap is enforced separately.
	router.MaxMultipartMemory = options.Upload.MaxBytes

	h := &Handler{
		eventService: eventService,
		notifier:     eventNotifier,
		hub:          hub,
		metrics:      m,
		options:      options,
		router:       router,
		log:          log,
	}

	h.registerRoutes()

	return h
}

// mustRegisterValidation panics when a binding tag cannot be registered, so a
// misconfigured tag fails at startup instead of on the first request.
func mustRegisterValidation(v *validator.Validate, tag string, fn validator.Func, log *zap.Logger) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		log.Error("Failed to register validation", zap.String("tag", tag), zap.Error(err))
		panic(fmt.Sprintf("failed to register %q validation: %v", tag, err))
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.POST("/events", h.createEvent)
	h.router.GET("/events", h.listEvents)
	h.router.GET("/events/:id", h.getEvent)
	h.router.DELETE("/events/:id", h.deleteEvent)
	h.router.GET("/stream", h.streamEvents)
	h.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if h.metrics != nil {
		h.router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}
}

// healthCheck handles health check requests
// @Summary Health check
// @Description Check that the service can reach MongoDB
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} dto.ErrorResponse
// @Router /health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.eventService.Ping(ctx); err != nil {
		h.log.Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
			Error:   dto.ErrCodeUnavailable,
			Message: "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// createEvent handles POST /events
// @Summary Create an event
// @Description Create an event from form fields with an optional image, then broadcast it to connected clients
// @Tags events
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param title formData string true "Event title"
// @Param description formData string false "Event description"
// @Param location formData string false "Event location"
// @Param date formData string false "Event date (RFC 3339)"
// @Param image formData file false "Event image"
// @Success 201 {object} domain.Event
// @Failure 400 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Failure 415 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /events [post]
func (h *Handler) createEvent(c *gin.Context) {
	var req dto.CreateEventRequest

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.options.Upload.MaxBytes+formOverheadBytes)

	if err := c.ShouldBind(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.log.Warn("Create event request body too large", zap.Int64("limit", tooLarge.Limit))
			h.respondError(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge,
				fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		h.log.Warn("Invalid create event request", zap.Error(err))
		h.respondError(c, http.StatusBadRequest, dto.ErrCodeValidation, err)
		return
	}

	image, closeImage, err := h.readImage(c)
	if err != nil {
		var policyErr *uploadPolicyError
		if errors.As(err, &policyErr) {
			h.log.Warn("Rejected event image", zap.Error(err))
			h.respondError(c, policyErr.status, policyErr.code, err)
			return
		}
		h.log.Warn("Failed to read event image", zap.Error(err))
		h.respondError(c, http.StatusBadRequest, dto.ErrCodeValidation, err)
		return
	}
	defer closeImage()

	event, err := h.eventService.CreateEvent(c.Request.Context(), &req, image)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			h.respondError(c, http.StatusBadRequest, dto.ErrCodeValidation, err)
			return
		}
		h.log.Error("Failed to create event",
			zap.Error(err),
			zap.String("title", req.Title),
			zap.Bool("has_image", image != nil))
		h.respondError(c, http.StatusInternalServerError, dto.ErrCodeInternal, err)
		return
	}

	h.notifier.EventCreated(c.Request.Context(), event)

	c.JSON(http.StatusCreated, event)
}

// listEvents handles GET /events
// @Summary List events
// @Description List every event, newest first
// @Tags events
// @Produce json
// @Success 200 {array} domain.Event
// @Failure 500 {object} dto.ErrorResponse
// @Router /events [get]
func (h *Handler) listEvents(c *gin.Context) {
	events, err := h.eventService.ListEvents(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to list events", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, dto.ErrCodeInternal, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// getEvent handles GET /events/:id
// @Summary Get an event
// @Tags events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} domain.Event
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /events/{id} [get]
func (h *Handler) getEvent(c *gin.Context) {
	id := c.Param("id")

	event, err := h.eventService.GetEvent(c.Request.Context(), id)
	if err != nil {
		h.log.Error("Failed to get event", zap.Error(err), zap.String("event_id", id))
		h.respondError(c, http.StatusInternalServerError, dto.ErrCodeInternal, err)
		return
	}
	if event == nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   dto.ErrCodeNotFound,
			Message: "event " + id + " not found",
		})
		return
	}

	c.JSON(http.StatusOK, event)
}

// deleteEvent handles DELETE /events/:id
// @Summary Delete an event
// @Description Delete an event and its image, then broadcast the deleted ID to connected clients
// @Tags events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} domain.Event
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /events/{id} [delete]
func (h *Handler) deleteEvent(c *gin.Context) {
	id := c.Param("id")

	event, err := h.eventService.DeleteEvent(c.Request.Context(), id)
	if err != nil {
		h.log.Error("Failed to delete event", zap.Error(err), zap.String("event_id", id))
		h.respondError(c, http.StatusInternalServerError, dto.ErrCodeInternal, err)
		return
	}

	h.notifier.EventDeleted(c.Request.Context(), id)

	if event == nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   dto.ErrCodeNotFound,
			Message: "event " + id + " not found",
		})
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *Handler) respondError(c *gin.Context, status int, code string, err error) {
	c.JSON(status, dto.ErrorResponse{
		Error:   code,
		Message: err.Error(),
	})
}
