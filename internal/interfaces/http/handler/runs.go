package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"z-scenario-gen/internal/application/scenario"
	"z-scenario-gen/internal/domain/entity"
	"z-scenario-gen/internal/domain/repository"
	"z-scenario-gen/internal/infrastructure/persistence/postgres"
	"z-scenario-gen/internal/interfaces/http/dto"
	apperrors "z-scenario-gen/pkg/errors"
	"z-scenario-gen/pkg/logger"
)

// RunStore 运行结果读取，由 Redis 场景存储实现
type RunStore interface {
	LoadBatch(ctx context.Context, runID string) (*entity.ScenarioBatch, error)
	RecentRuns(ctx context.Context, limit int64) ([]string, error)
}

// RecordLister 场景记录查询，由 Postgres 仓储实现
type RecordLister interface {
	ListByRun(ctx context.Context, runID string) ([]*postgres.ScenarioRecord, error)
	ListRuns(ctx context.Context, page repository.Pagination) (*repository.PagedResult[*postgres.ScenarioRunRecord], error)
}

// RunsHandler 运行进度与结果查询
type RunsHandler struct {
	progress *scenario.Progress
	store    RunStore
	records  RecordLister
}

func NewRunsHandler(progress *scenario.Progress, store RunStore, records RecordLister) *RunsHandler {
	return &RunsHandler{progress: progress, store: store, records: records}
}

// Current 当前进程中批次的进度
func (h *RunsHandler) Current(c *gin.Context) {
	dto.Success(c, h.progress.Snapshot())
}

// List 最近的运行 ID
func (h *RunsHandler) List(c *gin.Context) {
	if h.store == nil {
		dto.Error(c, http.StatusNotImplemented, "run history requires storage.redis.enabled")
		return
	}
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	ids, err := h.store.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	dto.Success(c, ids)
}

// Get 读取一次运行的完整批次
func (h *RunsHandler) Get(c *gin.Context) {
	if h.store == nil {
		dto.Error(c, http.StatusNotImplemented, "run history requires storage.redis.enabled")
		return
	}
	batch, err := h.store.LoadBatch(c.Request.Context(), c.Param("run_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	dto.Success(c, batch)
}

// Records 读取数据库中的场景记录
func (h *RunsHandler) Records(c *gin.Context) {
	if h.records == nil {
		dto.Error(c, http.StatusNotImplemented, "scenario records require storage.postgres.enabled")
		return
	}
	records, err := h.records.ListByRun(c.Request.Context(), c.Param("run_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(records) == 0 {
		dto.Error(c, http.StatusNotFound, "run not found")
		return
	}
	dto.Success(c, records)
}

// History 分页列出数据库中的运行汇总
func (h *RunsHandler) History(c *gin.Context) {
	if h.records == nil {
		dto.Error(c, http.StatusNotImplemented, "run history requires storage.postgres.enabled")
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	result, err := h.records.ListRuns(c.Request.Context(), repository.NewPagination(page, size))
	if err != nil {
		h.fail(c, err)
		return
	}
	dto.Success(c, result)
}

func (h *RunsHandler) fail(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "runs query failed", err, "path", c.FullPath())
	}
	dto.ErrorWithCode(c, appErr.HTTPStatus, string(appErr.Code), appErr.Error())
}
