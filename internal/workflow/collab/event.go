package collab

import (
	"github.com/cloudwego/eino/schema"
)

// EventKind 事件类型
type EventKind string

const (
	EventSystem    EventKind = "system"
	EventAssistant EventKind = "assistant"
	EventTool      EventKind = "tool"
)

// SubtypeInit 会话开始时的 system 事件子类型
const SubtypeInit = "init"

// Segment 助手内容片段：TextSegment 或 OtherSegment
type Segment interface {
	segment()
}

// TextSegment 文本片段
type TextSegment struct {
	Text string
}

// OtherSegment 非文本片段（工具调用、图片等），累积时忽略
type OtherSegment struct {
	Type string
}

func (TextSegment) segment()  {}
func (OtherSegment) segment() {}

// Event 协作者响应事件
type Event struct {
	Kind      EventKind
	Subtype   string
	SessionID string
	Content   []Segment
}

// EventStream 有限、不可重放的事件序列，结束时 Recv 返回 io.EOF
// *schema.StreamReader[*Event] 满足该接口。
type EventStream interface {
	Recv() (*Event, error)
	Close()
}

// NewEventStream 由已物化的事件构造流
func NewEventStream(events ...*Event) EventStream {
	return schema.StreamReaderFromArray(events)
}

// AssistantText 构造单段文本的助手事件
func AssistantText(text string) *Event {
	return &Event{Kind: EventAssistant, Content: []Segment{TextSegment{Text: text}}}
}

// SystemInit 构造会话初始化事件
func SystemInit(sessionID string) *Event {
	return &Event{Kind: EventSystem, Subtype: SubtypeInit, SessionID: sessionID}
}

// segmentsFromMessage 将 schema.Message 拆成片段
// 多模态内容按顺序保留，其中仅 text 类型视为 TextSegment。
func segmentsFromMessage(msg *schema.Message) []Segment {
	if msg == nil {
		return nil
	}
	var out []Segment
	if len(msg.MultiContent) > 0 {
		for _, part := range msg.MultiContent {
			if part.Type == schema.ChatMessagePartTypeText {
				out = append(out, TextSegment{Text: part.Text})
				continue
			}
			out = append(out, OtherSegment{Type: string(part.Type)})
		}
	} else if msg.Content != "" {
		out = append(out, TextSegment{Text: msg.Content})
	}
	for _, tc := range msg.ToolCalls {
		out = append(out, OtherSegment{Type: "tool_use:" + tc.Function.Name})
	}
	return out
}
