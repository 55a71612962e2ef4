package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	client "github.com/mamadbah2/herdbook/pkg/clients/whatsapp"
)

// Notifier delivers plain-text notifications to a recipient.
type Notifier interface {
	Notify(ctx context.Context, to, body string) error
}

// MetaWhatsAppService is the production Notifier backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	client   client.Client
	maxChunk int
	logger   *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(client client.Client, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		client:   client,
		maxChunk: maxChunkDefault,
		logger:   logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

const maxChunkDefault = client.MaxTextLength

// Notify sends body to the recipient, split on line boundaries into as many
// messages as the text limit requires.
func (s *MetaWhatsAppService) Notify(ctx context.Context, to, body string) error {
	if strings.TrimSpace(to) == "" {
		return errors.New("recipient is required")
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("empty message body")
	}

	chunks := Split(body, s.maxChunk)
	for i, chunk := range chunks {
		ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
		resp, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
			To:   to,
			Body: chunk,
		})
		cancel()
		if err != nil {
			return fmt.Errorf("send part %d/%d: %w", i+1, len(chunks), err)
		}

		var messageID string
		if resp != nil && len(resp.Messages) > 0 {
			messageID = resp.Messages[0].ID
		}
		s.logger.Debug("notification part sent",
			zap.String("to", to),
			zap.Int("part", i+1),
			zap.Int("parts", len(chunks)),
			zap.String("message_id", messageID))
	}
	return nil
}

// Split breaks text into pieces of at most limit bytes, cutting at the last
// newline that fits and hard-cutting lines that are longer than limit. Hard
// cuts fall on rune boundaries.
func Split(text string, limit int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	var out []string
	for len(text) > limit {
		cut := strings.LastIndexByte(text[:limit], '\n')
		if cut <= 0 {
			cut = runeCut(text, limit)
			out = append(out, text[:cut])
			text = text[cut:]
			continue
		}
		out = append(out, text[:cut])
		text = text[cut+1:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

// runeCut returns the largest rune boundary at or before limit. A single rune
// longer than limit is kept whole.
func runeCut(text string, limit int) int {
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if cut == 0 {
		_, cut = utf8.DecodeRuneInString(text)
	}
	return cut
}
