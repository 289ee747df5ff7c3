package collab

import (
	"context"
	"errors"
	"io"
	"strings"

	apperrors "z-scenario-gen/pkg/errors"
	"z-scenario-gen/pkg/logger"
)

// ErrEmptyResponse 协作者未产生任何事件
var ErrEmptyResponse = errors.New("collaborator returned no events")

// Collaborator 生成式协作者
type Collaborator interface {
	Invoke(ctx context.Context, req *Request) (EventStream, error)
}

// CollaboratorFunc 函数适配器
type CollaboratorFunc func(ctx context.Context, req *Request) (EventStream, error)

func (f CollaboratorFunc) Invoke(ctx context.Context, req *Request) (EventStream, error) {
	return f(ctx, req)
}

// Accumulate 按顺序拼接助手事件中的文本片段，并关闭流。
// 非助手事件与非文本片段被忽略；system 事件只用于调试日志。
func Accumulate(ctx context.Context, stream EventStream) (string, error) {
	if stream == nil {
		return "", apperrors.Wrap(ErrEmptyResponse, apperrors.CodeCollaboratorFailure, "collaborator failed")
	}
	defer stream.Close()

	var (
		buf    strings.Builder
		events int
	)
	for {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", apperrors.Wrap(err, apperrors.CodeCollaboratorFailure, "collaborator stream failed")
		}
		if ev == nil {
			continue
		}
		events++

		switch ev.Kind {
		case EventSystem:
			logger.Debug(ctx, "collaborator system event", "subtype", ev.Subtype, "session_id", ev.SessionID)
		case EventAssistant:
			for _, seg := range ev.Content {
				if t, ok := seg.(TextSegment); ok {
					buf.WriteString(t.Text)
				}
			}
		}
	}

	if events == 0 {
		return "", apperrors.Wrap(ErrEmptyResponse, apperrors.CodeCollaboratorFailure, "collaborator failed")
	}
	return buf.String(), nil
}

// Collect 调用协作者并累积完整文本
func Collect(ctx context.Context, c Collaborator, req *Request) (string, error) {
	if c == nil {
		return "", apperrors.New(apperrors.CodeCollaboratorFailure, "collaborator not configured")
	}
	stream, err := c.Invoke(ctx, req)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeCollaboratorFailure) {
			return "", err
		}
		return "", apperrors.Wrap(err, apperrors.CodeCollaboratorFailure, "collaborator invoke failed")
	}
	return Accumulate(ctx, stream)
}
