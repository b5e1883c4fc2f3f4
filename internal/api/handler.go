package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/tradebridge/internal/domain/dto"
	"github.com/guttosm/tradebridge/internal/domain/models"
	"github.com/guttosm/tradebridge/internal/middleware"
	"github.com/guttosm/tradebridge/internal/service"
)

const (
	statusOK    = "OK"
	statusError = "ERROR"
)

// Handler provides the terminal-facing HTTP endpoints.
//
// Responsibilities:
//   - Bind and validate request bodies
//   - Delegate to the order service
//   - Map service error kinds to the terminal's response contract
type Handler struct {
	svc service.OrderService
}

// NewHandler constructs a new Handler instance.
func NewHandler(svc service.OrderService) *Handler {
	return &Handler{svc: svc}
}

// Ping handles GET /ping. It ensures the venue connection is live and
// reconnects when the session has dropped.
//
// Ping godoc
// @Summary      Venue connectivity check
// @Description  Ensures the venue session is connected, reconnecting if needed
// @Tags         bridge
// @Produce      json
// @Success      200  {object}  dto.PingResponse       "Connected"
// @Failure      500  {object}  dto.PingErrorResponse  "Venue unreachable"
// @Router       /ping [get]
func (h *Handler) Ping(c *gin.Context) {
	if err := h.svc.Ping(c.Request.Context()); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.PingErrorResponse{Detail: "Backend ping failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.PingResponse{Status: statusOK})
}

// PlaceOrder handles POST /order.
//
// Responses:
//   - 200 OK: the venue acknowledged the order.
//   - 400 Bad Request: invalid action, direction, volume or body.
//   - 500 Internal Server Error: connection, symbol or submission failure.
//
// PlaceOrder godoc
// @Summary      Submit a market order
// @Description  Translates a terminal order (volume in lots) and places it on the venue
// @Tags         bridge
// @Accept       json
// @Produce      json
// @Param        order  body      dto.OrderRequest        true  "Order"
// @Success      200    {object}  dto.OrderResponse       "Acknowledged"
// @Failure      400    {object}  dto.OrderErrorResponse  "Invalid request"
// @Failure      500    {object}  dto.OrderErrorResponse  "Venue failure"
// @Router       /order [post]
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req dto.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, dto.OrderErrorResponse{
			Status:    statusError,
			Message:   "Invalid request body: " + err.Error(),
			ErrorType: service.KindValidation,
		})
		return
	}

	res, err := h.svc.PlaceOrder(c.Request.Context(), models.OrderIntent{
		Action:       req.Action,
		TerminalCode: req.Symbol,
		Direction:    req.Direction,
		Volume:       *req.Volume,
		RequestID:    middleware.GetRequestID(c),
	})
	if err != nil {
		_ = c.Error(err)
		c.JSON(errorStatus(err), orderError(err))
		return
	}

	c.JSON(http.StatusOK, dto.OrderResponse{
		BackendStatus: statusOK,
		OrderStatus:   res.Status,
		OrderID:       res.OrderID,
	})
}

func errorStatus(err error) int {
	if service.IsValidation(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// orderError builds the error envelope. An invalid action keeps the bare
// {"status","message"} shape terminals already parse.
func orderError(err error) dto.OrderErrorResponse {
	resp := dto.OrderErrorResponse{
		Status:    statusError,
		Message:   err.Error(),
		ErrorType: service.ErrorKind(err),
	}
	var v *service.ValidationError
	if errors.As(err, &v) && v.Field == "action" {
		resp.ErrorType = ""
	}
	return resp
}
