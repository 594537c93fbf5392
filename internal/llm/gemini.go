// Package llm provides the language-model tool selector consulted when the
// rule-based dialogue cannot place an utterance.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/starford/voxnote/internal/conversation"
)

// Generator produces a model completion for a system instruction and a
// prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

type gemini struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Generator backed by the Gemini API.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &gemini{client: client, model: model}, nil
}

func (g *gemini) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0),
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}

const systemPrompt = `You route requests for a personal notes assistant that understands English and Hebrew.
Choose exactly one tool and answer with a single JSON object and nothing else:
{"tool": "create_note|update_note|delete_note|find_note|unknown",
 "params": {"title": "", "description": "", "parent_id": "", "target_id": "", "text": "", "update_type": "replace_description|append_description", "query": ""},
 "response": ""}
create_note needs title. update_note needs target_id (a note id or exact title) and text.
delete_note needs target_id. find_note needs query. Use unknown when unsure.
Keep titles and text in the language the user spoke.`

// Selector chooses a tool with a language model. It implements
// conversation.Selector.
type Selector struct {
	gen     Generator
	timeout time.Duration
	logger  *slog.Logger
}

// NewSelector wraps gen. Each call is bounded by timeout when positive.
func NewSelector(gen Generator, timeout time.Duration, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{gen: gen, timeout: timeout, logger: logger}
}

// Select asks the model to map utterance onto a tool call.
func (s *Selector) Select(ctx context.Context, utterance string, history []conversation.Entry) (conversation.ToolCall, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	out, err := s.gen.Generate(ctx, systemPrompt, buildPrompt(utterance, history))
	if err != nil {
		return conversation.ToolCall{}, err
	}
	call, err := ParseToolCall(out)
	if err != nil {
		return conversation.ToolCall{}, err
	}
	s.logger.Debug("tool selected",
		slog.String("tool", call.Tool),
		slog.Duration("elapsed", time.Since(start)))
	return call, nil
}

func buildPrompt(utterance string, history []conversation.Entry) string {
	// the machine records the utterance before the selector runs
	if n := len(history); n > 0 && history[n-1].Role == conversation.RoleUser && history[n-1].Text == utterance {
		history = history[:n-1]
	}
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, e := range history {
			fmt.Fprintf(&b, "%s (%s): %s\n", e.Role, e.Lang, e.Text)
		}
		b.WriteString("\n")
	}
	b.WriteString("Request: ")
	b.WriteString(utterance)
	return b.String()
}

type wireCall struct {
	Tool   string `json:"tool"`
	Params struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		ParentID    string `json:"parent_id"`
		TargetID    string `json:"target_id"`
		Text        string `json:"text"`
		UpdateType  string `json:"update_type"`
		Query       string `json:"query"`
	} `json:"params"`
	Response string `json:"response"`
}

// ParseToolCall decodes a model answer. Markdown code fences and text
// around the JSON object are ignored.
func ParseToolCall(text string) (conversation.ToolCall, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return conversation.ToolCall{}, fmt.Errorf("no JSON object in model answer %q", truncate(text, 80))
	}
	var w wireCall
	if err := json.Unmarshal([]byte(text[start:end+1]), &w); err != nil {
		return conversation.ToolCall{}, fmt.Errorf("decode model answer: %w", err)
	}
	return conversation.ToolCall{
		Tool:        strings.TrimSpace(w.Tool),
		Title:       strings.TrimSpace(w.Params.Title),
		Description: w.Params.Description,
		ParentID:    strings.TrimSpace(w.Params.ParentID),
		TargetID:    strings.TrimSpace(w.Params.TargetID),
		Text:        strings.TrimSpace(w.Params.Text),
		UpdateType:  w.Params.UpdateType,
		Query:       strings.TrimSpace(w.Params.Query),
		Response:    w.Response,
	}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
