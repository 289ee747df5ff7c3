// Package cli 渲染命令行横幅与运行摘要
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"z-scenario-gen/internal/application/scenario"
	"z-scenario-gen/internal/config"
)

var (
	accent = lipgloss.Color("#5B8DEF")
	muted  = lipgloss.Color("#AAAAAA")
	warn   = lipgloss.Color("#FF6B6B")
	good   = lipgloss.Color("#4CAF50")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	bodyStyle  = lipgloss.NewStyle().Foreground(muted)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 2)
)

// Banner 启动横幅
func Banner(w io.Writer, cfg *config.Config) {
	lines := []string{
		titleStyle.Render("SCENARIO GENERATOR"),
		bodyStyle.Render("multi-role pipeline with a fixed feedback loop"),
		"",
		bodyStyle.Render(fmt.Sprintf("mode        %s", cfg.Generation.Mode)),
		bodyStyle.Render(fmt.Sprintf("scenarios   %d", cfg.Generation.BatchSize)),
		bodyStyle.Render(fmt.Sprintf("iterations  %d", cfg.Generation.MaxIterations)),
		bodyStyle.Render(fmt.Sprintf("output      %s/%s", cfg.Output.Dir, cfg.Output.File)),
	}
	fmt.Fprintln(w, boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

// Summary 批次结束摘要
func Summary(w io.Writer, res *scenario.BatchResult, outputPath string) {
	valid := 0
	for _, s := range res.Scenarios {
		if s.Validation.IsValid {
			valid++
		}
	}

	status := lipgloss.NewStyle().Bold(true).Foreground(good).Render("DONE")
	if len(res.Scenarios) == 0 && res.Requested > 0 {
		status = lipgloss.NewStyle().Bold(true).Foreground(warn).Render("FAILED")
	} else if len(res.Failures) > 0 || res.Cancelled {
		status = lipgloss.NewStyle().Bold(true).Foreground(warn).Render("PARTIAL")
	}

	lines := []string{
		status + " " + titleStyle.Render(fmt.Sprintf("%d/%d scenarios in %.1fs", len(res.Scenarios), res.Requested, res.Duration.Seconds())),
		bodyStyle.Render(fmt.Sprintf("validated   %d", valid)),
		bodyStyle.Render(fmt.Sprintf("run id      %s", res.RunID)),
	}
	if len(res.Failures) > 0 {
		idx := make([]string, 0, len(res.Failures))
		for _, f := range res.Failures {
			idx = append(idx, fmt.Sprintf("#%d", f.Index))
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(warn).Render("failed      "+strings.Join(idx, ", ")))
	}
	if outputPath != "" {
		lines = append(lines, bodyStyle.Render("saved to    "+outputPath))
	}
	fmt.Fprintln(w, boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

// SelfCheck 自检结果
func SelfCheck(w io.Writer, res *scenario.SelfCheckResult) {
	lines := []string{titleStyle.Render("collaborator self-check passed")}
	if res.SessionID != "" {
		lines = append(lines, bodyStyle.Render("session     "+res.SessionID))
	}
	lines = append(lines, "", lipgloss.NewStyle().Width(72).Render(strings.TrimSpace(res.Response)))
	fmt.Fprintln(w, boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}
