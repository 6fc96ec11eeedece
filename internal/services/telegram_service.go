package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const telegramAPI = "https://api.telegram.org"

// TelegramService sends admin notifications through the Telegram Bot API.
type TelegramService struct {
	botToken    string
	adminChatID string
	baseURL     string
	client      *http.Client
}

func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		baseURL:     telegramAPI,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether both the bot token and admin chat are set.
func (s *TelegramService) Configured() bool {
	return s.botToken != "" && s.adminChatID != ""
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	if s.botToken == "" {
		log.Debug().Msg("telegram: bot token not configured, skipping message")
		return nil
	}

	body, err := json.Marshal(telegramMessage{ChatID: chatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Notify implements Notifier by messaging the admin chat.
func (s *TelegramService) Notify(ctx context.Context, event OrderEvent) error {
	if !s.Configured() {
		return nil
	}

	text := formatOrderEvent(event)
	if text == "" {
		return nil
	}
	return s.SendMessage(ctx, s.adminChatID, text)
}

func formatOrderEvent(event OrderEvent) string {
	var b strings.Builder

	switch event.Type {
	case EventOrderCreated:
		b.WriteString("<b>🛒 New order</b>\n")
		writeOrderHeader(&b, event)
		if o := event.Order; o != nil {
			b.WriteString(fmt.Sprintf("<b>Customer:</b> %s\n<b>Phone:</b> %s\n",
				html.EscapeString(o.Customer.Name), html.EscapeString(o.Customer.Phone)))
			b.WriteString("<b>Items:</b>\n")
			for i, line := range o.Items {
				name := line.ProductName
				if line.Size != nil {
					name += " (" + line.Size.Label + ")"
				}
				b.WriteString(fmt.Sprintf("%d. %s\n   %d x %s = %s\n",
					i+1, html.EscapeString(name), line.Quantity,
					FormatINR(line.UnitPrice), FormatINR(line.LineTotal)))
			}
		}
		b.WriteString(fmt.Sprintf("<b>Total:</b> %s", FormatINR(event.TotalAmount)))

	case EventPaymentSubmitted:
		b.WriteString("<b>💳 Payment submitted</b>\n")
		writeOrderHeader(&b, event)
		if o := event.Order; o != nil {
			b.WriteString(fmt.Sprintf("<b>UTR:</b> %s\n", html.EscapeString(o.UTRNumber)))
			if o.PaymentProofURL != "" {
				b.WriteString(fmt.Sprintf("<b>Proof:</b> %s\n", html.EscapeString(o.PaymentProofURL)))
			}
		}
		b.WriteString(fmt.Sprintf("<b>Amount due:</b> %s\n<i>Awaiting verification</i>", FormatINR(event.TotalAmount)))

	case EventPaymentVerified:
		b.WriteString("<b>✅ Payment verified</b>\n")
		writeOrderHeader(&b, event)
		b.WriteString(fmt.Sprintf("<b>Result:</b> %s\n", event.PaymentStatus))
		if o := event.Order; o != nil && o.VerifiedAmount != nil {
			b.WriteString(fmt.Sprintf("<b>Verified amount:</b> %s\n<b>By:</b> %s",
				FormatINR(*o.VerifiedAmount), html.EscapeString(o.VerifiedBy)))
		}

	case EventStatusChanged:
		b.WriteString("<b>📦 Order status changed</b>\n")
		writeOrderHeader(&b, event)
		b.WriteString(fmt.Sprintf("<b>Status:</b> %s", event.OrderStatus))

	default:
		return ""
	}

	return strings.TrimSpace(b.String())
}

func writeOrderHeader(b *strings.Builder, event OrderEvent) {
	b.WriteString(fmt.Sprintf("<b>Order:</b> %s\n", html.EscapeString(event.OrderNumber)))
}

// FormatINR renders amount in rupees with Indian digit grouping, for
// example ₹1,23,456.50.
func FormatINR(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var grouped string
	if len(whole) <= 3 {
		grouped = whole
	} else {
		head, tail := whole[:len(whole)-3], whole[len(whole)-3:]
		var parts []string
		for len(head) > 2 {
			parts = append([]string{head[len(head)-2:]}, parts...)
			head = head[:len(head)-2]
		}
		if head != "" {
			parts = append([]string{head}, parts...)
		}
		grouped = strings.Join(parts, ",") + "," + tail
	}

	return sign + "₹" + grouped + "." + frac
}
