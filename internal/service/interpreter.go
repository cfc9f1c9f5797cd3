package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"monsurface-assistant/internal/brands"
	"monsurface-assistant/internal/contextutil"
	"monsurface-assistant/internal/llm"
	"monsurface-assistant/internal/metrics"
)

// MaxKeywords bounds the keyword list accepted from the model.
const MaxKeywords = 8

// UnknownIntent is the label used when a message cannot be interpreted.
const UnknownIntent = "unknown"

// Intent is the structured reading of one message.
type Intent struct {
	Label    string   `json:"intent"`
	Keywords []string `json:"keywords"`
}

// unknown is the degraded interpretation.
func unknown() Intent {
	return Intent{Label: UnknownIntent, Keywords: []string{}}
}

// interpreter implements Interpreter.
type interpreter struct {
	client LLMClient
	brands *brands.Table
	prompt string
}

// NewInterpreter creates an Interpreter that asks client for a JSON intent
// and canonicalizes brand keywords through table.
func NewInterpreter(client LLMClient, table *brands.Table) Interpreter {
	if table == nil {
		table = brands.Default()
	}
	return &interpreter{
		client: client,
		brands: table,
		prompt: interpreterPrompt(table),
	}
}

func interpreterPrompt(table *brands.Table) string {
	return `你是建材查詢助理的關鍵字擷取器。請從使用者的問題中擷取查詢意圖與搜尋關鍵字。

只回傳一個 JSON 物件，不要有其他文字：
{"intent": "<簡短意圖，例如 lookup_model、lookup_color、other>", "keywords": ["<關鍵字>", ...]}

規則：
- keywords 依問題中出現的順序排列，每個關鍵字簡短（品牌、型號、色名、系列等），最多 ` + fmt.Sprint(MaxKeywords) + ` 個。
- 品牌若是別名，請改寫為標準品牌名稱。
- 無法擷取任何關鍵字時回傳 "keywords": []。

品牌對照（標準名稱: 別名）：
` + table.PromptHint()
}

// Interpret extracts the intent of question. Any failure, and any reply
// without keywords, degrades to the unknown intent with no keywords. An unparseable reply earns exactly one
// more attempt; an upstream error does not.
func (s *interpreter) Interpret(ctx context.Context, question string) Intent {
	logger := contextutil.LoggerFromContext(ctx)

	question = strings.TrimSpace(question)
	if question == "" {
		return unknown()
	}

	messages := []llm.Message{
		{Role: "system", Content: s.prompt},
		{Role: "user", Content: question},
	}
	params := llm.ChatParams{Temperature: 0, MaxTokens: 200, JSON: true}

	for attempt := 1; attempt <= 2; attempt++ {
		start := time.Now()
		raw, err := s.client.ChatWithMessages(ctx, messages, params)
		if err != nil {
			metrics.RecordLLMCall("interpret", "error", time.Since(start).Seconds())
			logger.WarnContext(ctx, "keyword extraction failed",
				"attempt", attempt,
				"error", fmt.Errorf("%w: %v", ErrInterpretation, err),
			)
			return unknown()
		}

		intent, err := ParseIntent(raw)
		if err != nil {
			metrics.RecordLLMCall("interpret", "unparseable", time.Since(start).Seconds())
			logger.WarnContext(ctx, "unparseable keyword extraction",
				"attempt", attempt,
				"reply_length", len(raw),
				"error", fmt.Errorf("%w: %v", ErrInterpretation, err),
			)
			continue
		}
		metrics.RecordLLMCall("interpret", "ok", time.Since(start).Seconds())

		intent.Keywords = s.canonicalize(intent.Keywords)
		if len(intent.Keywords) == 0 {
			intent = unknown()
		}
		logger.InfoContext(ctx, "message interpreted",
			"intent", intent.Label,
			"keywords", intent.Keywords,
		)
		return intent
	}

	return unknown()
}

// canonicalize maps exact brand aliases to canonical names and drops repeats.
func (s *interpreter) canonicalize(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		if name, ok := s.brands.Canonical(kw); ok {
			kw = name
		}
		if seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

// ParseIntent strictly decodes a model reply. The reply must be a single
// JSON object with a non-empty "intent" string and a "keywords" array of at
// most MaxKeywords non-empty strings; a surrounding code fence is tolerated.
func ParseIntent(raw string) (Intent, error) {
	body := stripFence(strings.TrimSpace(raw))
	if body == "" {
		return Intent{}, fmt.Errorf("empty reply")
	}

	var payload struct {
		Intent   *string   `json:"intent"`
		Keywords *[]string `json:"keywords"`
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return Intent{}, fmt.Errorf("decode: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Intent{}, fmt.Errorf("trailing data after object")
	}

	if payload.Intent == nil || strings.TrimSpace(*payload.Intent) == "" {
		return Intent{}, fmt.Errorf("missing intent")
	}
	if payload.Keywords == nil {
		return Intent{}, fmt.Errorf("missing keywords")
	}
	if len(*payload.Keywords) > MaxKeywords {
		return Intent{}, fmt.Errorf("%d keywords, at most %d allowed", len(*payload.Keywords), MaxKeywords)
	}

	keywords := make([]string, 0, len(*payload.Keywords))
	for i, kw := range *payload.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			return Intent{}, fmt.Errorf("keyword %d is empty", i)
		}
		keywords = append(keywords, kw)
	}

	return Intent{Label: strings.TrimSpace(*payload.Intent), Keywords: keywords}, nil
}

// stripFence removes a ``` or ```json fence around s.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && strings.TrimSpace(s[:nl]) != "" && !strings.HasPrefix(strings.TrimSpace(s[:nl]), "{") {
		s = s[nl+1:]
	}
	return strings.TrimSpace(s)
}
