package collab

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"z-scenario-gen/internal/workflow/gametools"
)

// scriptedModel 依次返回预设消息，并记录收到的消息与绑定的工具
type scriptedModel struct {
	mu       sync.Mutex
	replies  []*schema.Message
	calls    [][]*schema.Message
	tools    []*schema.ToolInfo
	toolsErr error
}

func (m *scriptedModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, input)
	if len(m.replies) == 0 {
		return schema.AssistantMessage("", nil), nil
	}
	out := m.replies[0]
	m.replies = m.replies[1:]
	return out, nil
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	out, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{out}), nil
}

func (m *scriptedModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	if m.toolsErr != nil {
		return nil, m.toolsErr
	}
	m.tools = tools
	return m, nil
}

type staticResolver struct {
	role model.BaseChatModel
	tier model.BaseChatModel
}

func (r *staticResolver) ForRole(context.Context, string) (model.BaseChatModel, string, error) {
	return r.role, "test", nil
}

func (r *staticResolver) ForTier(context.Context, string) (model.BaseChatModel, string, error) {
	if r.tier != nil {
		return r.tier, "test-tier", nil
	}
	return r.role, "test", nil
}

func toolCallMessage(id, name, args string) *schema.Message {
	return schema.AssistantMessage("", []schema.ToolCall{{
		ID:       id,
		Type:     "function",
		Function: schema.FunctionCall{Name: name, Arguments: args},
	}})
}

func TestEinoCollaboratorPlainAnswer(t *testing.T) {
	m := &scriptedModel{replies: []*schema.Message{schema.AssistantMessage("a concept", nil)}}
	c := NewEinoCollaborator(&staticResolver{role: m}, EinoConfig{})

	stream, err := c.Invoke(context.Background(), &Request{Role: "creative", Profile: "You write.", Instructions: "Write."})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	first, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv() error = %v", err)
	}
	if first.Kind != EventSystem || first.Subtype != SubtypeInit || first.SessionID == "" {
		t.Fatalf("first event = %+v, want system/init with session id", first)
	}

	text, err := Accumulate(context.Background(), stream)
	if err != nil {
		t.Fatalf("Accumulate() error = %v", err)
	}
	if text != "a concept" {
		t.Errorf("text = %q, want %q", text, "a concept")
	}
	if len(m.calls) != 1 {
		t.Fatalf("model called %d times, want 1", len(m.calls))
	}
	if got := m.calls[0][0].Content; got != "You write." {
		t.Errorf("system message = %q", got)
	}
}

func TestEinoCollaboratorRunsToolLoop(t *testing.T) {
	m := &scriptedModel{replies: []*schema.Message{
		toolCallMessage("call_1", gametools.ToolNameValidateBalance,
			`{"playerHp":100,"bossHp":500,"playerDamage":50,"bossDamage":20,"turns":10}`),
		schema.AssistantMessage("balanced design", nil),
	}}
	c := NewEinoCollaborator(&staticResolver{role: m}, EinoConfig{})

	text, err := Collect(context.Background(), c, &Request{
		Role:         "design",
		Profile:      "You design.",
		Instructions: "Check balance.",
		Tools:        gametools.DesignTools(),
	})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if text != "balanced design" {
		t.Errorf("text = %q", text)
	}
	if len(m.tools) != 2 {
		t.Errorf("bound %d tools, want 2", len(m.tools))
	}
	if len(m.calls) != 2 {
		t.Fatalf("model called %d times, want 2", len(m.calls))
	}
	last := m.calls[1][len(m.calls[1])-1]
	if last.Role != schema.Tool || !strings.Contains(last.Content, `"turnsToDefeat": 10`) {
		t.Errorf("tool result not fed back to model: %+v", last)
	}
}

func TestEinoCollaboratorStopsRunawayToolLoop(t *testing.T) {
	var replies []*schema.Message
	for i := 0; i < 5; i++ {
		replies = append(replies, toolCallMessage("call", gametools.ToolNameChoiceComplexity,
			`{"numChoices":3,"hasConsequences":true,"affectsInventory":false,"affectsStats":false}`))
	}
	m := &scriptedModel{replies: replies}
	c := NewEinoCollaborator(&staticResolver{role: m}, EinoConfig{MaxToolRounds: 2})

	_, err := c.Invoke(context.Background(), &Request{Role: "design", Tools: gametools.DesignTools()})
	if err == nil {
		t.Fatal("Invoke() error = nil, want too many tool rounds")
	}
}

func TestEinoCollaboratorReachesMaxToolRounds(t *testing.T) {
	for _, rounds := range []int{1, DefaultMaxToolRounds, 10} {
		var replies []*schema.Message
		for i := 0; i < rounds; i++ {
			replies = append(replies, toolCallMessage("call", gametools.ToolNameChoiceComplexity,
				`{"numChoices":3,"hasConsequences":true,"affectsInventory":false,"affectsStats":false}`))
		}
		replies = append(replies, schema.AssistantMessage("final", nil))
		m := &scriptedModel{replies: replies}
		c := NewEinoCollaborator(&staticResolver{role: m}, EinoConfig{MaxToolRounds: rounds})

		text, err := Collect(context.Background(), c, &Request{Role: "design", Tools: gametools.DesignTools()})
		if err != nil {
			t.Fatalf("rounds=%d: Collect() error = %v", rounds, err)
		}
		if text != "final" {
			t.Errorf("rounds=%d: text = %q, want final", rounds, text)
		}
		if len(m.calls) != rounds+1 {
			t.Errorf("rounds=%d: model called %d times, want %d", rounds, len(m.calls), rounds+1)
		}
	}
}

func TestEinoCollaboratorKeepsToolsWhenModelBindsInPlace(t *testing.T) {
	m := &scriptedModel{replies: []*schema.Message{
		toolCallMessage("call_1", gametools.ToolNameChoiceComplexity,
			`{"numChoices":2,"hasConsequences":false,"affectsInventory":false,"affectsStats":false}`),
		schema.AssistantMessage("done", nil),
	}}
	c := NewEinoCollaborator(&staticResolver{role: m}, EinoConfig{})

	text, err := Collect(context.Background(), c, &Request{Role: "design", Tools: gametools.DesignTools()})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if text != "done" || len(m.calls) != 2 {
		t.Errorf("text = %q after %d model calls, want done after 2", text, len(m.calls))
	}
}

func TestEinoCollaboratorDropsToolsWhenBindingFails(t *testing.T) {
	m := &scriptedModel{
		replies:  []*schema.Message{schema.AssistantMessage("plain", nil)},
		toolsErr: errors.New("tools unsupported"),
	}
	c := NewEinoCollaborator(&staticResolver{role: m}, EinoConfig{})

	text, err := Collect(context.Background(), c, &Request{Role: "design", Tools: gametools.DesignTools()})
	if err != nil || text != "plain" {
		t.Fatalf("Collect() = %q, %v", text, err)
	}
}

func TestEinoCollaboratorDelegatesToSubRole(t *testing.T) {
	sub := &scriptedModel{replies: []*schema.Message{schema.AssistantMessage("refined concept", nil)}}
	m := &scriptedModel{replies: []*schema.Message{
		toolCallMessage("call_1", DelegateToolName("concept-refiner"), `{"task":"refine this"}`),
		schema.AssistantMessage("final", nil),
	}}
	c := NewEinoCollaborator(&staticResolver{role: m, tier: sub}, EinoConfig{})

	text, err := Collect(context.Background(), c, &Request{
		Role:         "creative",
		Profile:      "You write.",
		Instructions: "Write.",
		SubRoles: map[string]SubRole{
			"concept-refiner": {Description: "Refines concepts", Profile: "You refine.", Tier: TierFast},
		},
	})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if text != "final" {
		t.Errorf("text = %q", text)
	}
	if len(sub.calls) != 1 || sub.calls[0][0].Content != "You refine." || sub.calls[0][1].Content != "refine this" {
		t.Fatalf("sub-role not invoked with its profile: %+v", sub.calls)
	}
	if !strings.Contains(m.calls[0][0].Content, "delegate_concept_refiner") {
		t.Errorf("system prompt does not list sub-role tool: %q", m.calls[0][0].Content)
	}
}

func TestEinoCollaboratorWriteFileOnlyWithAcceptEdits(t *testing.T) {
	dir := t.TempDir()
	args := `{"path":"notes/out.txt","content":"hello"}`

	for _, mode := range []PermissionMode{PermissionDefault, PermissionAcceptEdits} {
		m := &scriptedModel{replies: []*schema.Message{
			toolCallMessage("call_1", toolNameWriteFile, args),
			schema.AssistantMessage("ok", nil),
		}}
		c := NewEinoCollaborator(&staticResolver{role: m}, EinoConfig{Workspace: dir})
		req := &Request{Role: "coordinator", PermissionMode: mode, Tools: gametools.DesignTools()}
		if _, err := Collect(context.Background(), c, req); err != nil {
			t.Fatalf("mode %s: Collect() error = %v", mode, err)
		}

		_, statErr := os.Stat(filepath.Join(dir, "notes", "out.txt"))
		if mode == PermissionDefault && statErr == nil {
			t.Fatal("default mode wrote a file")
		}
		if mode == PermissionAcceptEdits && statErr != nil {
			t.Fatalf("accept_edits mode did not write file: %v", statErr)
		}
	}
}

func TestWriteFileToolRejectsEscapes(t *testing.T) {
	tl := newWriteFileTool(t.TempDir())
	for _, p := range []string{"../evil.txt", "/etc/passwd", "", "a/../../b"} {
		if _, err := tl.resolve(p); err == nil {
			t.Errorf("resolve(%q) error = nil, want rejection", p)
		}
	}
	if _, err := tl.resolve("ok/file.txt"); err != nil {
		t.Errorf("resolve(ok/file.txt) error = %v", err)
	}
}
