package scenario

import (
	"fmt"
	"strings"

	"z-scenario-gen/internal/domain/entity"
)

const lineWidth = 80

var (
	heavyRule = strings.Repeat("=", lineWidth)
	lightRule = strings.Repeat("─", lineWidth)
)

// FormatScenario 渲染单个场景的文本块
// 顺序：叙事、结构、原始概念、单行校验摘要。
func FormatScenario(s *entity.Scenario, index int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(heavyRule + "\n")
	fmt.Fprintf(&b, "SCENARIO #%d\n", index)
	b.WriteString(heavyRule + "\n\n")

	b.WriteString(s.Narrative + "\n\n")
	b.WriteString(lightRule + "\n\n")

	b.WriteString("GAME MECHANICS:\n")
	b.WriteString(s.GameStructure + "\n\n")
	b.WriteString(lightRule + "\n\n")

	b.WriteString("ORIGINAL CONCEPT:\n")
	b.WriteString(s.Concept + "\n\n")
	b.WriteString(lightRule + "\n\n")

	b.WriteString("Validation: " + s.Validation.Summary() + "\n\n")
	b.WriteString(heavyRule + "\n")
	return b.String()
}

// FormatBatch 渲染整份输出文档，场景按传入顺序从 1 编号
func FormatBatch(scenarios []*entity.Scenario, title string) string {
	var b strings.Builder
	b.WriteString(heavyRule + "\n")
	b.WriteString(center(title, lineWidth) + "\n")
	b.WriteString(heavyRule + "\n\n")

	for i, s := range scenarios {
		b.WriteString(FormatScenario(s, i+1))
		b.WriteString("\n\n")
	}
	return b.String()
}

func center(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return strings.Repeat(" ", (width-n)/2) + s
}
