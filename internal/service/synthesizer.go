package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"monsurface-assistant/internal/catalog"
	"monsurface-assistant/internal/contextutil"
	"monsurface-assistant/internal/llm"
	"monsurface-assistant/internal/metrics"
	"monsurface-assistant/internal/textfmt"
)

// DefaultTabularThreshold is the record count above which answers are
// listed instead of generated.
const DefaultTabularThreshold = 5

const synthesizerPrompt = `你是一位建材專家，專門回答與建材相關的問題。
請根據提供的建材資料，使用繁體中文並以條列式回答使用者的問題。
每一筆建材都要完整列出所有提供的欄位，不要省略任何一筆，也不要編造資料中沒有的內容。
如果提供的資料與問題無關，請明確說明在這些資料中找不到相關的建材。`

// synthesizer implements Synthesizer.
type synthesizer struct {
	client    LLMClient
	threshold int
}

// NewSynthesizer creates a Synthesizer. A non-positive threshold uses
// DefaultTabularThreshold.
func NewSynthesizer(client LLMClient, threshold int) Synthesizer {
	if threshold <= 0 {
		threshold = DefaultTabularThreshold
	}
	return &synthesizer{
		client:    client,
		threshold: threshold,
	}
}

// Synthesize answers question from records. No records yields the
// instruction text and more than the threshold yields a compact listing,
// both without a model call. A failed model call yields NarrowQueryText.
func (s *synthesizer) Synthesize(ctx context.Context, question string, records []catalog.Record) (string, Outcome) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(records) == 0 {
		return InstructionText, OutcomeNoMatch
	}
	if len(records) > s.threshold {
		logger.InfoContext(ctx, "too many records for a generated answer",
			"records", len(records),
			"threshold", s.threshold,
		)
		return TabularListing(records), OutcomeTabular
	}

	messages := []llm.Message{
		{Role: "system", Content: synthesizerPrompt},
		{Role: "user", Content: fmt.Sprintf("建材資料：\n%s\n使用者的問題是：「%s」", FormatRecords(records), question)},
	}

	start := time.Now()
	reply, err := s.client.ChatWithMessages(ctx, messages, llm.ChatParams{Temperature: 0.2})
	if err == nil && strings.TrimSpace(reply) == "" {
		err = fmt.Errorf("empty completion")
	}
	if err != nil {
		metrics.RecordLLMCall("synthesize", "error", time.Since(start).Seconds())
		logger.WarnContext(ctx, "answer generation failed",
			"records", len(records),
			"error", fmt.Errorf("%w: %v", ErrSynthesis, err),
		)
		return NarrowQueryText, OutcomeSynthesisFailed
	}
	metrics.RecordLLMCall("synthesize", "ok", time.Since(start).Seconds())

	return textfmt.PlainText(reply), OutcomeAnswered
}

// FormatRecords renders records as numbered blocks of "name: value" lines,
// omitting empty values.
func FormatRecords(records []catalog.Record) string {
	var sb strings.Builder
	for i, r := range records {
		fmt.Fprintf(&sb, "【第 %d 筆】資料表：%s\n", i+1, r.Table)
		for _, f := range r.Fields {
			if strings.TrimSpace(f.Value) == "" {
				continue
			}
			fmt.Fprintf(&sb, "%s: %s\n", f.Name, f.Value)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
