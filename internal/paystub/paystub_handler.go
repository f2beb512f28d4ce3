package paystub

import (
	"net/http"
	"strconv"
	"time"

	"go-paystub/internal/middleware"
	"go-paystub/internal/shared/apperror"
	"go-paystub/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const idempotencyResultTTL = 24 * time.Hour

type Handler struct {
	service Service
	rdb     *redis.Client
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func NewHandlerWithRedis(service Service, rdb *redis.Client) *Handler {
	return &Handler{service: service, rdb: rdb}
}

func getActorID(c *gin.Context) string {
	actorID := c.GetString("user_id_validated")
	if actorID == "" {
		actorID = c.GetString("user_id")
	}
	return actorID
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) writeBindError(c *gin.Context, err error) {
	h.writeServiceError(c, apperror.MapValidationError(err))
}

// Generate runs the pipeline inline, or queues it when async=true.
func (h *Handler) Generate(c *gin.Context) {
	lockKey := c.GetString(middleware.IdempotencyLockKey)
	cacheKey := c.GetString(middleware.IdempotencyCacheKey)

	if h.rdb != nil && lockKey != "" {
		defer h.rdb.Del(c.Request.Context(), lockKey)
	}

	companyID := c.GetString("company_id")
	actorID := getActorID(c)

	var req GeneratePayStubsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	var (
		resp   any
		status int
	)
	if async, _ := strconv.ParseBool(c.DefaultQuery("async", "false")); async {
		queued, err := h.service.QueueGeneration(c.Request.Context(), companyID, actorID, req)
		if err != nil {
			h.writeServiceError(c, err)
			return
		}
		resp, status = queued, http.StatusAccepted
	} else {
		result, err := h.service.Generate(c.Request.Context(), companyID, actorID, req)
		if err != nil {
			h.writeServiceError(c, err)
			return
		}
		resp, status = result, http.StatusOK
	}

	if h.rdb != nil && cacheKey != "" {
		if payload, encodeErr := middleware.EncodeCachedResponse(status, resp); encodeErr == nil {
			_ = h.rdb.Set(c.Request.Context(), cacheKey, payload, idempotencyResultTTL).Err()
		}
	}

	response.Success(c, status, resp, nil)
}

func (h *Handler) Search(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")

	var req SearchPayStubsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	resp, err := h.service.Search(ctx, companyID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if pageSize < 1 {
		pageSize = 10
	}

	total := int64(len(resp))
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(resp) {
		start = len(resp)
	}
	if end > len(resp) {
		end = len(resp)
	}

	meta := response.NewPaginationMeta(total, page, pageSize)
	response.Success(c, http.StatusOK, resp[start:end], &meta)
}

func (h *Handler) GetByID(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	companyID := c.GetString("company_id")

	resp, err := h.service.View(ctx, companyID, getActorID(c), id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) CheckCompliance(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	companyID := c.GetString("company_id")

	resp, err := h.service.CheckCompliance(ctx, companyID, id, c.Query("state"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Download(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	companyID := c.GetString("company_id")

	file, err := h.service.Download(ctx, companyID, getActorID(c), id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Attachment(c, file.FileName, file.ContentType, file.Data)
}

func (h *Handler) AccessLog(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	companyID := c.GetString("company_id")

	resp, err := h.service.AccessLog(ctx, companyID, id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Regenerate(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	companyID := c.GetString("company_id")

	resp, err := h.service.Regenerate(ctx, companyID, getActorID(c), id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Metrics(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")

	var req MetricsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	resp, err := h.service.Metrics(ctx, companyID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Batch(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")

	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	resp, err := h.service.Batch(ctx, companyID, getActorID(c), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
