// Package file 将场景批次写入本地文件
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"gopkg.in/yaml.v3"

	"z-scenario-gen/internal/config"
	"z-scenario-gen/internal/domain/entity"
	apperrors "z-scenario-gen/pkg/errors"
	"z-scenario-gen/pkg/logger"
)

var tracer = otel.Tracer("file")

const manifestName = "manifest.yaml"

// FormatFunc 渲染整份文档与单个场景
type FormatFunc struct {
	Batch    func(scenarios []*entity.Scenario, title string) string
	Scenario func(s *entity.Scenario, index int) string
}

// Store 文件存储，每次运行整体覆盖主文件
type Store struct {
	cfg    config.OutputConfig
	format FormatFunc
}

func NewStore(cfg config.OutputConfig, format FormatFunc) *Store {
	return &Store{cfg: cfg, format: format}
}

// Manifest 运行摘要
type Manifest struct {
	RunID      string          `yaml:"run_id"`
	Title      string          `yaml:"title"`
	Requested  int             `yaml:"requested"`
	Succeeded  int             `yaml:"succeeded"`
	Validated  int             `yaml:"validated"`
	Failed     []int           `yaml:"failed,omitempty"`
	StartedAt  time.Time       `yaml:"started_at"`
	FinishedAt time.Time       `yaml:"finished_at"`
	Output     string          `yaml:"output"`
	Scenarios  []ManifestEntry `yaml:"scenarios"`
}

type ManifestEntry struct {
	Index      int      `yaml:"index"`
	File       string   `yaml:"file,omitempty"`
	Mode       string   `yaml:"mode"`
	Iterations int      `yaml:"iterations"`
	Valid      bool     `yaml:"valid"`
	Issues     []string `yaml:"issues,omitempty"`
}

// Name 实现 repository.ScenarioSink
func (s *Store) Name() string {
	return "file"
}

// MainPath 主输出文件路径
func (s *Store) MainPath() string {
	return filepath.Join(s.cfg.Dir, s.cfg.File)
}

// SaveBatch 写入主文件，按配置写入单场景文件与清单
func (s *Store) SaveBatch(ctx context.Context, batch *entity.ScenarioBatch) error {
	ctx, span := tracer.Start(ctx, "file.Store.SaveBatch")
	defer span.End()

	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		span.RecordError(err)
		return apperrors.ErrPersistenceFailed.WithError(fmt.Errorf("create output dir: %w", err))
	}

	title := batch.Title
	if title == "" {
		title = s.cfg.Title
	}
	if err := writeFile(s.MainPath(), s.format.Batch(batch.Scenarios, title)); err != nil {
		span.RecordError(err)
		return apperrors.ErrPersistenceFailed.WithError(err)
	}

	manifest := Manifest{
		RunID:      batch.RunID,
		Title:      title,
		Requested:  batch.Requested,
		Succeeded:  len(batch.Scenarios),
		Validated:  batch.ValidCount(),
		Failed:     batch.FailedItems,
		StartedAt:  batch.StartedAt,
		FinishedAt: batch.FinishedAt,
		Output:     s.cfg.File,
	}

	for i, sc := range batch.Scenarios {
		entry := ManifestEntry{
			Index:      sc.Index,
			Mode:       sc.Mode,
			Iterations: sc.Iterations,
			Valid:      sc.Validation.IsValid,
			Issues:     sc.Validation.Issues,
		}
		if s.cfg.IndividualFiles && s.format.Scenario != nil {
			// 文件名与标题都按成功场景的位置编号，Index 保留在清单中
			pos := i + 1
			entry.File = fmt.Sprintf("scenario-%d.txt", pos)
			if err := writeFile(filepath.Join(s.cfg.Dir, entry.File), s.format.Scenario(sc, pos)); err != nil {
				span.RecordError(err)
				return apperrors.ErrPersistenceFailed.WithError(err)
			}
		}
		manifest.Scenarios = append(manifest.Scenarios, entry)
	}

	if s.cfg.Manifest {
		b, err := yaml.Marshal(&manifest)
		if err != nil {
			return apperrors.ErrPersistenceFailed.WithError(fmt.Errorf("marshal manifest: %w", err))
		}
		if err := writeFile(filepath.Join(s.cfg.Dir, manifestName), string(b)); err != nil {
			span.RecordError(err)
			return apperrors.ErrPersistenceFailed.WithError(err)
		}
	}

	logger.Info(ctx, "scenarios saved", "path", s.MainPath(), "count", len(batch.Scenarios))
	return nil
}

// writeFile 先写临时文件再重命名，避免留下半截文件
func writeFile(path, content string) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
