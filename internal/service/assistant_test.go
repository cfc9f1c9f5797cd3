package service_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"go.uber.org/mock/gomock"

	"monsurface-assistant/internal/brands"
	"monsurface-assistant/internal/catalog"
	"monsurface-assistant/internal/service"
	"monsurface-assistant/internal/service/mocks"
	"monsurface-assistant/internal/storage"
)

type pipelineMocks struct {
	guard       *mocks.MockAccessGuard
	interpreter *mocks.MockInterpreter
	resolver    *mocks.MockResolver
	synthesizer *mocks.MockSynthesizer
}

func TestAssistant_Reply(t *testing.T) {
	shortcuts := service.Shortcuts{HotURL: "https://example.com/hot", TechURL: ""}
	f200 := []catalog.Record{record("富美家", "F200", "黑")}

	tests := []struct {
		name      string
		message   string
		mockSetup func(m pipelineMocks)
		want      service.Reply
	}{
		{
			name:    "denied requester gets fixed message",
			message: "F200",
			mockSetup: func(m pipelineMocks) {
				m.guard.EXPECT().Check(gomock.Any(), "U1").Return(false)
			},
			want: service.Reply{Text: service.DeniedText, Outcome: service.OutcomeDenied},
		},
		{
			name:    "hot shortcut",
			message: "  熱門主推 ",
			mockSetup: func(m pipelineMocks) {
				m.guard.EXPECT().Check(gomock.Any(), "U1").Return(true)
			},
			want: service.Reply{
				Text:    "📌 熱門主推建材資訊\n請點擊以下連結查看：\nhttps://example.com/hot",
				Outcome: service.OutcomeShortcut,
			},
		},
		{
			name:    "tech shortcut without link configured",
			message: "技術資訊",
			mockSetup: func(m pipelineMocks) {
				m.guard.EXPECT().Check(gomock.Any(), "U1").Return(true)
			},
			want: service.Reply{
				Text:    "🔧 技術資訊總覽\n請點擊以下連結查看：\n⚠️ 未設定技術資訊連結",
				Outcome: service.OutcomeShortcut,
			},
		},
		{
			name:    "no keywords returns instruction text without lookup",
			message: "你好",
			mockSetup: func(m pipelineMocks) {
				m.guard.EXPECT().Check(gomock.Any(), "U1").Return(true)
				m.interpreter.EXPECT().Interpret(gomock.Any(), "你好").
					Return(service.Intent{Label: service.UnknownIntent, Keywords: []string{}})
			},
			want: service.Reply{Text: service.InstructionText, Outcome: service.OutcomeNoKeywords},
		},
		{
			name:    "catalog not loaded",
			message: "F200",
			mockSetup: func(m pipelineMocks) {
				m.guard.EXPECT().Check(gomock.Any(), "U1").Return(true)
				m.interpreter.EXPECT().Interpret(gomock.Any(), "F200").
					Return(service.Intent{Label: "lookup_model", Keywords: []string{"F200"}})
				m.resolver.EXPECT().Resolve(gomock.Any(), []string{"F200"}).
					Return(nil, fmt.Errorf("summary search failed: %w", storage.ErrCatalogNotLoaded))
			},
			want: service.Reply{Text: service.CatalogUnavailableText, Outcome: service.OutcomeCatalogUnavailable},
		},
		{
			name:    "search failure",
			message: "F200",
			mockSetup: func(m pipelineMocks) {
				m.guard.EXPECT().Check(gomock.Any(), "U1").Return(true)
				m.interpreter.EXPECT().Interpret(gomock.Any(), "F200").
					Return(service.Intent{Label: "lookup_model", Keywords: []string{"F200"}})
				m.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(nil, errors.New("database is locked"))
			},
			want: service.Reply{Text: service.CatalogUnavailableText, Outcome: service.OutcomeCatalogUnavailable},
		},
		{
			name:    "full pipeline with normalized message",
			message: "富美家　 F200\n黑色",
			mockSetup: func(m pipelineMocks) {
				m.guard.EXPECT().Check(gomock.Any(), "U1").Return(true)
				m.interpreter.EXPECT().Interpret(gomock.Any(), "富美家 F200 黑色").
					Return(service.Intent{Label: "lookup_model", Keywords: []string{"富美家", "F200", "黑"}})
				m.resolver.EXPECT().Resolve(gomock.Any(), []string{"富美家", "F200", "黑"}).Return(f200, nil)
				m.synthesizer.EXPECT().Synthesize(gomock.Any(), "富美家 F200 黑色", f200).
					Return("F200 黑色", service.OutcomeAnswered)
			},
			want: service.Reply{Text: "F200 黑色", Outcome: service.OutcomeAnswered},
		},
		{
			name:    "no match is synthesized as instruction text",
			message: "富美家 黑",
			mockSetup: func(m pipelineMocks) {
				m.guard.EXPECT().Check(gomock.Any(), "U1").Return(true)
				m.interpreter.EXPECT().Interpret(gomock.Any(), gomock.Any()).
					Return(service.Intent{Label: "lookup_color", Keywords: []string{"富美家", "黑"}})
				m.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(nil, nil)
				m.synthesizer.EXPECT().Synthesize(gomock.Any(), gomock.Any(), gomock.Len(0)).
					Return(service.InstructionText, service.OutcomeNoMatch)
			},
			want: service.Reply{Text: service.InstructionText, Outcome: service.OutcomeNoMatch},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			m := pipelineMocks{
				guard:       mocks.NewMockAccessGuard(ctrl),
				interpreter: mocks.NewMockInterpreter(ctrl),
				resolver:    mocks.NewMockResolver(ctrl),
				synthesizer: mocks.NewMockSynthesizer(ctrl),
			}
			tt.mockSetup(m)

			a := service.NewAssistant(m.guard, m.interpreter, m.resolver, m.synthesizer, shortcuts)
			got := a.Reply(testContext(), "U1", tt.message)
			if got != tt.want {
				t.Errorf("Reply() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestAssistant_EndToEnd runs the real resolver and synthesizer over a
// built catalog with only the language model mocked.
func TestAssistant_EndToEnd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	columns := []string{"品牌", "型號", "色名", "尺寸"}
	_, err := catalog.NewBuilder().BuildSheets(testContext(), []catalog.Sheet{
		{Name: "富美家", Columns: columns, Rows: [][]string{
			{"富美家", "F100", "白", "4x8"},
		}},
		{Name: "樂維", Columns: columns, Rows: [][]string{
			{"LAVI", "L200", "黑", "4x8"},
		}},
	}, dbPath)
	if err != nil {
		t.Fatalf("BuildSheets() error = %v", err)
	}
	cat, err := storage.OpenCatalog(dbPath)
	if err != nil {
		t.Fatalf("OpenCatalog() error = %v", err)
	}
	defer func() {
		_ = cat.Close()
	}()

	ctrl := gomock.NewController(t)
	guard := mocks.NewMockAccessGuard(ctrl)
	guard.EXPECT().Check(gomock.Any(), gomock.Any()).Return(true).AnyTimes()
	client := mocks.NewMockLLMClient(ctrl)

	table := brands.Default()
	a := service.NewAssistant(
		guard,
		service.NewInterpreter(client, table),
		catalog.NewResolver(cat, table, catalog.DefaultLimit),
		service.NewSynthesizer(client, service.DefaultTabularThreshold),
		service.Shortcuts{},
	)

	// Brand filter excludes the only black row: one interpretation call, no synthesis call.
	client.EXPECT().ChatWithMessages(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(`{"intent":"lookup_color","keywords":["富美家","黑"]}`, nil).Times(1)
	got := a.Reply(testContext(), "U1", "富美家 黑色")
	if got.Text != service.InstructionText || got.Outcome != service.OutcomeNoMatch {
		t.Errorf("Reply() = %+v, want instruction text", got)
	}

	gomock.InOrder(
		client.EXPECT().ChatWithMessages(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(`{"intent":"lookup_color","keywords":["LAVI","黑"]}`, nil),
		client.EXPECT().ChatWithMessages(gomock.Any(), gomock.Any(), gomock.Any()).
			Return("- 樂維 L200 黑", nil),
	)
	got = a.Reply(testContext(), "U1", "LAVI 黑色")
	if got.Text != "• 樂維 L200 黑" || got.Outcome != service.OutcomeAnswered {
		t.Errorf("Reply() = %+v", got)
	}
}

func TestAskRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       service.AskRequest
		wantField string
	}{
		{"valid", service.AskRequest{RequesterID: "U1", Message: "F200"}, ""},
		{"missing user", service.AskRequest{Message: "F200"}, "user_id"},
		{"blank message", service.AskRequest{RequesterID: "U1", Message: "  "}, "message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			var ve *service.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.wantField {
				t.Errorf("Validate() error = %v, want field %s", err, tt.wantField)
			}
		})
	}
}

func TestNormalizeMessage(t *testing.T) {
	if got := service.NormalizeMessage("  富美家　\tF200 \n"); got != "富美家 F200" {
		t.Errorf("NormalizeMessage() = %q", got)
	}
}
