// Package entity 定义领域实体
package entity

import (
	"strings"
	"time"
)

// ScenarioRequest 批次中的一个生成单元，Index 从 1 开始
type ScenarioRequest struct {
	Index int `json:"index"`
}

// ValidationResult 设计校验结果
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Issues  []string `json:"issues"`
}

// DefaultValidation 返回乐观兜底结果 {true, []}
func DefaultValidation() ValidationResult {
	return ValidationResult{IsValid: true, Issues: []string{}}
}

// Summary 返回单行校验摘要
func (v ValidationResult) Summary() string {
	if v.IsValid {
		return "VALIDATED"
	}
	if len(v.Issues) == 0 {
		return "ISSUES: (none reported)"
	}
	return "ISSUES: " + strings.Join(v.Issues, "; ")
}

// Scenario 单个场景的完整产物
type Scenario struct {
	Index         int              `json:"index"`
	Concept       string           `json:"concept"`
	Narrative     string           `json:"narrative"`
	GameStructure string           `json:"gameStructure"`
	Validation    ValidationResult `json:"validation"`
	Iterations    int              `json:"iterations"`
	// Mode 生成方式：pipeline | orchestrated
	Mode        string    `json:"mode"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// ScenarioBatch 一次运行产出的场景集合
type ScenarioBatch struct {
	RunID       string      `json:"runId"`
	Title       string      `json:"title"`
	Requested   int         `json:"requested"`
	Scenarios   []*Scenario `json:"scenarios"`
	FailedItems []int       `json:"failedItems"`
	StartedAt   time.Time   `json:"startedAt"`
	FinishedAt  time.Time   `json:"finishedAt"`
}

// ValidCount 返回校验通过的场景数
func (b *ScenarioBatch) ValidCount() int {
	n := 0
	for _, s := range b.Scenarios {
		if s.Validation.IsValid {
			n++
		}
	}
	return n
}
