package gametools

import (
	"fmt"
)

// Quality 选择复杂度等级
type Quality string

const (
	QualityBasic  Quality = "BASIC"
	QualityMedium Quality = "MEDIUM"
	QualityHigh   Quality = "HIGH"
)

// ChoiceInput 一个决策节点的描述
type ChoiceInput struct {
	NumChoices       float64 `json:"numChoices"`
	HasConsequences  bool    `json:"hasConsequences"`
	AffectsInventory bool    `json:"affectsInventory"`
	AffectsStats     bool    `json:"affectsStats"`
}

// ChoiceReport 复杂度评估结果
type ChoiceReport struct {
	Complexity float64  `json:"complexity"`
	Quality    Quality  `json:"quality"`
	Notes      []string `json:"notes"`
}

// Validate 校验输入范围
func (in ChoiceInput) Validate() error {
	return checkRanges(numericRange{"numChoices", in.NumChoices, 1, 10})
}

// EvaluateChoiceComplexity 计算决策节点的复杂度与分支质量
func EvaluateChoiceComplexity(in ChoiceInput) (ChoiceReport, error) {
	if err := in.Validate(); err != nil {
		return ChoiceReport{}, err
	}

	report := ChoiceReport{Complexity: 1, Notes: []string{}}

	if in.NumChoices > 2 {
		report.Complexity += in.NumChoices * 0.5
		report.Notes = append(report.Notes, fmt.Sprintf("Multiple choices (%g) add complexity", in.NumChoices))
	}
	if in.HasConsequences {
		report.Complexity += 1
		report.Notes = append(report.Notes, "Choices have consequences adds replay value")
	}
	if in.AffectsInventory {
		report.Complexity += 0.5
		report.Notes = append(report.Notes, "Inventory integration adds depth")
	}
	if in.AffectsStats {
		report.Complexity += 0.5
		report.Notes = append(report.Notes, "Stat changes add strategic elements")
	}

	switch {
	case report.Complexity > 3:
		report.Quality = QualityHigh
	case report.Complexity > 2:
		report.Quality = QualityMedium
	default:
		report.Quality = QualityBasic
	}
	return report, nil
}
