package whatsapp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	client "github.com/mamadbah2/herdbook/pkg/clients/whatsapp"
)

type fakeClient struct {
	sent []client.SendTextMessageRequest
	err  error
}

func (f *fakeClient) SendTextMessage(_ context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, req)
	return &client.SendTextMessageResponse{}, nil
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"short"}, Split("short", 10))
	assert.Equal(t, []string{"line one", "line two\nx"}, Split("line one\nline two\nx", 10))
	assert.Equal(t, []string{"abcde", "fghij", "k"}, Split("abcdefghijk", 5))
}

func TestSplit_KeepsRunesWhole(t *testing.T) {
	line := strings.Repeat("Bélé ", 1000)
	chunks := Split(line, client.MaxTextLength)
	require.Greater(t, len(chunks), 1)
	assert.Equal(t, line, strings.Join(chunks, ""))
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c))
		assert.LessOrEqual(t, len(c), client.MaxTextLength)
	}

	assert.Equal(t, []string{"é", "é", "é"}, Split("ééé", 3))
}

func TestNotify_SplitsLongBodies(t *testing.T) {
	fc := &fakeClient{}
	svc := NewMetaWhatsAppService(fc, nil)
	svc.maxChunk = 12

	require.NoError(t, svc.Notify(context.Background(), "224600", "first line\nsecond line\nthird"))
	require.Len(t, fc.sent, 3)
	for _, req := range fc.sent {
		assert.Equal(t, "224600", req.To)
		assert.LessOrEqual(t, len(req.Body), 12)
	}
	assert.Equal(t, "third", fc.sent[2].Body)
}

func TestNotify_Errors(t *testing.T) {
	fc := &fakeClient{err: errors.New("boom")}
	svc := NewMetaWhatsAppService(fc, nil)

	assert.Error(t, svc.Notify(context.Background(), "", "body"))
	assert.Error(t, svc.Notify(context.Background(), "224600", "  "))

	err := svc.Notify(context.Background(), "224600", strings.Repeat("a", 3))
	assert.ErrorContains(t, err, "send part 1/1")
}
