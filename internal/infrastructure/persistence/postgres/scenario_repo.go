package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"z-scenario-gen/internal/domain/entity"
	"z-scenario-gen/internal/domain/repository"
	apperrors "z-scenario-gen/pkg/errors"
)

// ScenarioRunRecord 一次运行的汇总
type ScenarioRunRecord struct {
	RunID       string        `gorm:"primaryKey;type:varchar(64)"`
	Title       string        `gorm:"type:text"`
	Requested   int           `gorm:"not null"`
	Succeeded   int           `gorm:"not null"`
	Validated   int           `gorm:"not null"`
	FailedItems pq.Int64Array `gorm:"type:integer[]"`
	StartedAt   time.Time
	FinishedAt  time.Time
	CreatedAt   time.Time
}

func (ScenarioRunRecord) TableName() string { return "scenario_runs" }

// ScenarioRecord 单个场景
type ScenarioRecord struct {
	ID            string         `gorm:"primaryKey;type:varchar(64)"`
	RunID         string         `gorm:"index;type:varchar(64);not null"`
	ScenarioIndex int            `gorm:"not null"`
	Title         string         `gorm:"type:text"`
	Concept       string         `gorm:"type:text"`
	Narrative     string         `gorm:"type:text"`
	GameStructure string         `gorm:"type:text"`
	IsValid       bool           `gorm:"not null"`
	Issues        pq.StringArray `gorm:"type:text[]"`
	Iterations    int            `gorm:"not null"`
	Mode          string         `gorm:"type:varchar(32)"`
	GeneratedAt   time.Time
	CreatedAt     time.Time
}

func (ScenarioRecord) TableName() string { return "scenario_records" }

// ScenarioRepository 追加写入运行与场景记录
type ScenarioRepository struct {
	client *Client
}

func NewScenarioRepository(client *Client) *ScenarioRepository {
	return &ScenarioRepository{client: client}
}

// Name 实现 repository.ScenarioSink
func (r *ScenarioRepository) Name() string {
	return "postgres"
}

// SaveBatch 在一个事务内写入运行汇总与全部场景
func (r *ScenarioRepository) SaveBatch(ctx context.Context, batch *entity.ScenarioBatch) error {
	ctx, span := tracer.Start(ctx, "postgres.ScenarioRepository.SaveBatch")
	defer span.End()

	run, records := toRecords(batch)
	err := r.client.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("failed to create scenario run: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.Create(&records).Error; err != nil {
			return fmt.Errorf("failed to create scenario records: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to save scenario batch")
	}
	return nil
}

// ListByRun 按序号返回某次运行的场景
func (r *ScenarioRepository) ListByRun(ctx context.Context, runID string) ([]*ScenarioRecord, error) {
	ctx, span := tracer.Start(ctx, "postgres.ScenarioRepository.ListByRun")
	defer span.End()

	var out []*ScenarioRecord
	if err := r.client.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("scenario_index ASC").
		Find(&out).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list scenario records: %w", err)
	}
	return out, nil
}

// ListRuns 按开始时间倒序分页列出运行汇总
func (r *ScenarioRepository) ListRuns(ctx context.Context, page repository.Pagination) (*repository.PagedResult[*ScenarioRunRecord], error) {
	ctx, span := tracer.Start(ctx, "postgres.ScenarioRepository.ListRuns")
	defer span.End()

	db := r.client.db.WithContext(ctx).Model(&ScenarioRunRecord{})
	var total int64
	if err := db.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count scenario runs: %w", err)
	}

	var runs []*ScenarioRunRecord
	if err := db.Order("started_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&runs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list scenario runs: %w", err)
	}
	return repository.NewPagedResult(runs, total, page), nil
}

func toRecords(batch *entity.ScenarioBatch) (*ScenarioRunRecord, []*ScenarioRecord) {
	failed := make(pq.Int64Array, 0, len(batch.FailedItems))
	for _, i := range batch.FailedItems {
		failed = append(failed, int64(i))
	}
	run := &ScenarioRunRecord{
		RunID:       batch.RunID,
		Title:       batch.Title,
		Requested:   batch.Requested,
		Succeeded:   len(batch.Scenarios),
		Validated:   batch.ValidCount(),
		FailedItems: failed,
		StartedAt:   batch.StartedAt,
		FinishedAt:  batch.FinishedAt,
	}

	records := make([]*ScenarioRecord, 0, len(batch.Scenarios))
	for _, s := range batch.Scenarios {
		issues := pq.StringArray(s.Validation.Issues)
		if issues == nil {
			issues = pq.StringArray{}
		}
		records = append(records, &ScenarioRecord{
			ID:            uuid.NewString(),
			RunID:         batch.RunID,
			ScenarioIndex: s.Index,
			Title:         conceptTitle(s.Concept),
			Concept:       s.Concept,
			Narrative:     s.Narrative,
			GameStructure: s.GameStructure,
			IsValid:       s.Validation.IsValid,
			Issues:        issues,
			Iterations:    s.Iterations,
			Mode:          s.Mode,
			GeneratedAt:   s.GeneratedAt,
		})
	}
	return run, records
}

// conceptTitle 取概念的第一行非空文本作为标题
func conceptTitle(concept string) string {
	for _, line := range strings.Split(concept, "\n") {
		line = strings.Trim(strings.TrimSpace(line), "#*: ")
		if line == "" {
			continue
		}
		if r := []rune(line); len(r) > 120 {
			return string(r[:120])
		}
		return line
	}
	return ""
}
