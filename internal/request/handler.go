// File: internal/request/handler.go
package request

import (
	"errors"

	"farmlink_backend/internal/common"
	"farmlink_backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for request handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new request handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for request operations. All routes
// require authentication; creation and outgoing listing are limited to
// requester roles, decisions and incoming listing to farmers.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, farmerRoleMW gin.HandlerFunc, requesterRoleMW gin.HandlerFunc) {
	requestGroup := router.Group("/requests")
	requestGroup.Use(authMW)
	{
		requestGroup.GET("/:id", h.getRequestByID)
		requestGroup.POST("/:id/complete", h.completeRequest)

		requesterGroup := requestGroup.Group("")
		requesterGroup.Use(requesterRoleMW)
		{
			requesterGroup.POST("", h.createRequest)
			requesterGroup.GET("/outgoing", h.getOutgoingRequests)
		}

		farmerGroup := requestGroup.Group("")
		farmerGroup.Use(farmerRoleMW)
		{
			farmerGroup.GET("/incoming", h.getIncomingRequests)
			farmerGroup.PATCH("/:id/decide", h.decideRequest)
		}
	}
}

func (h *Handler) createRequest(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Create request: Invalid request body", zap.Error(err), zap.String("userID", userID.String()))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	created, err := h.service.CreateRequest(c.Request.Context(), userID, middleware.GetUserRoleFromContext(c), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Request submitted successfully.", ToRequestResponse(created))
}

func (h *Handler) getRequestByID(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request ID format."))
		return
	}

	found, err := h.service.GetRequestByID(c.Request.Context(), requestID, userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Request retrieved successfully.", ToRequestResponse(found))
}

func (h *Handler) decideRequest(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request ID format."))
		return
	}

	var req DecideRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	decided, err := h.service.Decide(c.Request.Context(), requestID, userID, RequestStatus(req.Status))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Request decided successfully.", ToRequestResponse(decided))
}

func (h *Handler) completeRequest(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request ID format."))
		return
	}

	completed, err := h.service.Complete(c.Request.Context(), requestID, userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Request completed successfully.", ToRequestResponse(completed))
}

func (h *Handler) getIncomingRequests(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	var query RequestListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid query parameters: "+err.Error()))
		return
	}

	requests, pagination, err := h.service.ListForFarmer(c.Request.Context(), userID, query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Incoming requests retrieved successfully.", toRequestResponses(requests), pagination)
}

func (h *Handler) getOutgoingRequests(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	var query RequestListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid query parameters: "+err.Error()))
		return
	}

	requests, pagination, err := h.service.ListForRequester(c.Request.Context(), userID, query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Your requests retrieved successfully.", toRequestResponses(requests), pagination)
}

func toRequestResponses(requests []Request) []RequestResponse {
	responses := make([]RequestResponse, len(requests))
	for i := range requests {
		responses[i] = ToRequestResponse(&requests[i])
	}
	return responses
}
