package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"z-scenario-gen/pkg/logger"
)

const toolNameWriteFile = "write_file"

// writeFileTool 仅在 accept_edits 模式下绑定，写入范围限制在 root 目录内
type writeFileTool struct {
	root string
}

func newWriteFileTool(root string) *writeFileTool {
	return &writeFileTool{root: root}
}

func (t *writeFileTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: toolNameWriteFile,
		Desc: "Write a UTF-8 text file inside the output workspace. Paths are relative to the workspace root.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"path":    {Type: schema.String, Desc: "Relative file path, e.g. scenario-1.txt", Required: true},
			"content": {Type: schema.String, Desc: "Full file content", Required: true},
		}),
	}, nil
}

func (t *writeFileTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return toolErrorJSON(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	target, err := t.resolve(args.Path)
	if err != nil {
		return toolErrorJSON(err.Error()), nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("write_file: %w", err)
	}
	if err := os.WriteFile(target, []byte(args.Content), 0o644); err != nil {
		return "", fmt.Errorf("write_file: %w", err)
	}
	logger.Info(ctx, "collaborator wrote file", "path", target, "bytes", len(args.Content))

	b, _ := json.Marshal(map[string]any{"written": filepath.ToSlash(filepath.Clean(args.Path)), "bytes": len(args.Content)})
	return string(b), nil
}

// resolve 将相对路径限制在 root 内
func (t *writeFileTool) resolve(rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return "", fmt.Errorf("path is required")
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("path must be relative")
	}
	root, err := filepath.Abs(t.root)
	if err != nil {
		return "", err
	}
	target := filepath.Join(root, filepath.Clean(rel))
	if target == root || !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace: %s", rel)
	}
	return target, nil
}

func toolErrorJSON(msg string) string {
	b, _ := json.Marshal(map[string]any{"error": msg})
	return string(b)
}
