package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/line/line-bot-sdk-go/v7/linebot"

	"monsurface-assistant/internal/contextutil"
	"monsurface-assistant/internal/metrics"
	"monsurface-assistant/internal/service"
)

// MaxReplyRunes is the longest text message the chat platform accepts.
const MaxReplyRunes = 5000

// Messenger is the chat platform as seen by the webhook.
type Messenger interface {
	// ParseRequest verifies the webhook signature and decodes its events.
	ParseRequest(r *http.Request) ([]*linebot.Event, error)
	// ReplyText answers the event identified by replyToken.
	ReplyText(ctx context.Context, replyToken, text string) error
}

// LineMessenger implements Messenger with the LINE Messaging API.
type LineMessenger struct {
	client *linebot.Client
}

// NewLineMessenger creates a LineMessenger. Options such as
// linebot.WithEndpointBase are passed to the SDK client.
func NewLineMessenger(channelSecret, channelToken string, options ...linebot.ClientOption) (*LineMessenger, error) {
	client, err := linebot.New(channelSecret, channelToken, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LINE client: %w", err)
	}
	return &LineMessenger{client: client}, nil
}

// ParseRequest verifies X-Line-Signature and decodes the events.
func (m *LineMessenger) ParseRequest(r *http.Request) ([]*linebot.Event, error) {
	return m.client.ParseRequest(r)
}

// ReplyText sends a single text message.
func (m *LineMessenger) ReplyText(ctx context.Context, replyToken, text string) error {
	if _, err := m.client.ReplyMessage(replyToken, linebot.NewTextMessage(text)).WithContext(ctx).Do(); err != nil {
		return fmt.Errorf("%w: %v", service.ErrTransport, err)
	}
	return nil
}

// WebhookHandler answers chat platform webhook calls.
type WebhookHandler struct {
	messenger Messenger
	assistant service.Assistant
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(messenger Messenger, assistant service.Assistant) *WebhookHandler {
	return &WebhookHandler{
		messenger: messenger,
		assistant: assistant,
	}
}

// ServeHTTP handles POST /callback. Each text message event is answered
// before the handler returns. Delivery failures are logged and the webhook
// still acknowledges with 200 so the platform does not redeliver.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	events, err := h.messenger.ParseRequest(r)
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			logger.WarnContext(ctx, "invalid webhook signature")
		} else {
			logger.WarnContext(ctx, "invalid webhook body", "error", err)
		}
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	for _, event := range events {
		h.handleEvent(ctx, event)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) handleEvent(ctx context.Context, event *linebot.Event) {
	if event.Type != linebot.EventTypeMessage {
		return
	}
	message, ok := event.Message.(*linebot.TextMessage)
	if !ok {
		return
	}

	requesterID := ""
	if event.Source != nil {
		requesterID = event.Source.UserID
	}

	reply := h.assistant.Reply(ctx, requesterID, message.Text)

	if err := h.messenger.ReplyText(ctx, event.ReplyToken, TruncateReply(reply.Text)); err != nil {
		metrics.RecordDeliveryFailure()
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to deliver reply",
			"requester_id", requesterID,
			"outcome", reply.Outcome,
			"error", err,
		)
	}
}

// TruncateReply cuts text to MaxReplyRunes characters.
func TruncateReply(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxReplyRunes {
		return text
	}
	return string(runes[:MaxReplyRunes])
}
