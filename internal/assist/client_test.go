package assist

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardline/operator-console/internal/model"
)

type fakeClient struct {
	lastReq *CompletionRequest
	resp    *CompletionResponse
	err     error
}

func (f *fakeClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeClient) Name() string { return "fake" }

func guestMsg(content string) model.Message {
	return model.Message{Content: content, SenderType: model.SenderGuest, CreatedAt: time.Now()}
}

func adminMsg(content string) model.Message {
	return model.Message{Content: content, SenderType: model.SenderAdmin, CreatedAt: time.Now()}
}

func TestDraftMapsRoles(t *testing.T) {
	fc := &fakeClient{resp: &CompletionResponse{Content: "  Happy to help!  "}}
	d := NewDrafter(fc, "test-model")

	history := []model.Message{
		guestMsg("Do you cover events?"),
		adminMsg("We do."),
		guestMsg("What about overnight?"),
	}

	draft, err := d.Draft(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, "Happy to help!", draft)

	req := fc.lastReq
	require.NotNil(t, req)
	assert.Equal(t, "test-model", req.Model)

	require.Len(t, req.Messages, 4)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "user", req.Messages[1].Role)
	assert.Equal(t, "assistant", req.Messages[2].Role)
	assert.Equal(t, "user", req.Messages[3].Role)
	assert.Equal(t, "What about overnight?", req.Messages[3].Content)
}

func TestDraftWindowsLongHistory(t *testing.T) {
	fc := &fakeClient{resp: &CompletionResponse{Content: "ok"}}
	d := NewDrafter(fc, "test-model")

	var history []model.Message
	for i := 0; i < historyWindow+15; i++ {
		history = append(history, guestMsg(fmt.Sprintf("message %d", i)))
	}

	_, err := d.Draft(context.Background(), history)
	require.NoError(t, err)

	// system prompt + the most recent window
	require.Len(t, fc.lastReq.Messages, historyWindow+1)
	assert.Equal(t, "message 15", fc.lastReq.Messages[1].Content)
}

func TestDraftRejectsEmptyHistory(t *testing.T) {
	d := NewDrafter(&fakeClient{}, "test-model")
	_, err := d.Draft(context.Background(), nil)
	assert.Error(t, err)
}

func TestDraftRejectsWhenLatestIsAdmin(t *testing.T) {
	fc := &fakeClient{resp: &CompletionResponse{Content: "ok"}}
	d := NewDrafter(fc, "test-model")

	_, err := d.Draft(context.Background(), []model.Message{
		guestMsg("hello"),
		adminMsg("already answered"),
	})
	require.Error(t, err)
	assert.Nil(t, fc.lastReq, "provider must not be called")
}

func TestDraftPropagatesProviderError(t *testing.T) {
	fc := &fakeClient{err: errors.New("rate limited")}
	d := NewDrafter(fc, "test-model")

	_, err := d.Draft(context.Background(), []model.Message{guestMsg("hello")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}
