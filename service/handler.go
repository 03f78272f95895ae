package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/voxmail-ai/voxmail-core/core/chat"
	"github.com/voxmail-ai/voxmail-core/core/llms"
	"github.com/voxmail-ai/voxmail-core/internal/utils"
	"go.opentelemetry.io/otel/attribute"
)

type converseRequest struct {
	Message string         `json:"message"`
	History []chat.Message `json:"history"`
}

// converseRecord is one NDJSON line of the response stream.
type converseRecord struct {
	Delta *string `json:"delta,omitempty"`
	Done  bool    `json:"done,omitempty"`
	Reply *string `json:"reply,omitempty"`
	Error *string `json:"error,omitempty"`
}

// converse resolves any mail tool calls in a bounded non-streaming loop, then
// streams the spoken answer as NDJSON deltas. Tool-call artifacts never reach
// the wire; only the final natural-language reply does.
func (s *Server) converse(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "converse")
	defer span.End()

	var request converseRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(request.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.Int("request.history_turns", len(request.History)))

	messages := make([]llms.Message, 0, len(request.History)+1)
	for _, turn := range request.History {
		messages = append(messages, llms.Message{
			Role:    llms.MessageRole(turn.Role),
			Content: turn.Content,
		})
	}
	messages = append(messages, llms.Message{
		Role:    llms.MessageRoleUser,
		Content: request.Message,
	})

	messages, err := s.resolveToolCalls(ctx, messages)
	if err != nil {
		span.RecordError(err)
		http.Error(w, "conversation backend unavailable", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	flusher, _ := w.(http.Flusher)
	encoder := json.NewEncoder(w)
	writeRecord := func(record converseRecord) {
		if err := encoder.Encode(record); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	reply := strings.Builder{}
	for chunk, err := range s.stream(ctx, messages) {
		if err != nil {
			span.RecordError(err)
			writeRecord(converseRecord{Error: utils.Ptr(err.Error())})
			return
		}

		content, ok := chunk.(llms.StreamContentChunk)
		if !ok {
			continue
		}
		reply.WriteString(content.Content())
		writeRecord(converseRecord{Delta: utils.Ptr(content.Content())})
	}

	span.SetAttributes(attribute.Int("response.reply_length", reply.Len()))
	writeRecord(converseRecord{Done: true, Reply: utils.Ptr(reply.String())})
}

// resolveToolCalls runs the model with the mail tools until it stops calling
// them or the round cap is hit, folding every call and result back into the
// message list.
func (s *Server) resolveToolCalls(ctx context.Context, messages []llms.Message) ([]llms.Message, error) {
	ctx, span := tracer.Start(ctx, "resolve tool calls")
	defer span.End()

	tools := mailTools(ctx, s.mail)
	rounds := 0
	for ; rounds < maxToolRounds; rounds++ {
		response, err := s.prompt(ctx, messages, tools)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if len(response.ToolCalls) == 0 {
			break
		}

		messages = append(messages, llms.Message{
			Role:      llms.MessageRoleAssistant,
			ToolCalls: response.ToolCalls,
		})
		for _, call := range response.ToolCalls {
			messages = append(messages, llms.Message{
				Role:       llms.MessageRoleTool,
				Content:    s.executeTool(tools, call),
				ToolCallID: call.ID,
			})
		}
	}
	span.SetAttributes(attribute.Int("response.tool_rounds", rounds))

	return messages, nil
}

func (s *Server) executeTool(tools []llms.Tool, call llms.ToolCall) string {
	for _, tool := range tools {
		if tool.Function.Name != call.Name {
			continue
		}
		result, err := tool.Execute(call.Arguments)
		if err != nil {
			logger.Warn("tool execution failed", "tool", call.Name, "error", err)
			return "The tool call failed: " + err.Error()
		}
		return result
	}
	return "Unknown tool: " + call.Name
}
