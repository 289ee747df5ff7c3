package prompt

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

type PromptID string

const (
	PromptConceptV1         PromptID = "concept_v1"
	PromptStructureV1       PromptID = "structure_v1"
	PromptEnrichV1          PromptID = "enrich_v1"
	PromptCritiqueV1        PromptID = "critique_v1"
	PromptRefineV1          PromptID = "refine_v1"
	PromptAdjustMechanicsV1 PromptID = "adjust_mechanics_v1"
	PromptPolishV1          PromptID = "polish_v1"
	PromptValidateV1        PromptID = "validate_v1"
	PromptOrchestrateV1     PromptID = "orchestrate_v1"
	PromptProbeV1           PromptID = "probe_v1"
)

var knownPrompts = map[PromptID]bool{
	PromptConceptV1:         true,
	PromptStructureV1:       true,
	PromptEnrichV1:          true,
	PromptCritiqueV1:        true,
	PromptRefineV1:          true,
	PromptAdjustMechanicsV1: true,
	PromptPolishV1:          true,
	PromptValidateV1:        true,
	PromptOrchestrateV1:     true,
	PromptProbeV1:           true,
}

// Rendered 渲染后的角色设定与任务指令
type Rendered struct {
	System string
	User   string
}

type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	if !knownPrompts[id] {
		return nil, fmt.Errorf("unknown prompt id: %s", id)
	}
	system, err := readEmbeddedText(fmt.Sprintf("templates/%s.system.txt", id))
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText(fmt.Sprintf("templates/%s.user.txt", id))
	if err != nil {
		return nil, err
	}

	tpl := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	r.cache[id] = tpl
	return tpl, nil
}

// Render 用 vars 格式化模板，返回 system 与 user 文本
func (r *Registry) Render(ctx context.Context, id PromptID, vars map[string]any) (Rendered, error) {
	tpl, err := r.ChatTemplate(id)
	if err != nil {
		return Rendered{}, err
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return Rendered{}, fmt.Errorf("format prompt %s: %w", id, err)
	}

	var out Rendered
	for _, m := range msgs {
		switch m.Role {
		case schema.System:
			out.System = m.Content
		case schema.User:
			out.User = m.Content
		}
	}
	return out, nil
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
