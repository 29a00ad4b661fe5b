package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatrelay/internal/models"
)

type recordingView struct {
	mu       sync.Mutex
	messages []models.ChatMessage
	typing   bool
	typingOn int
	cleared  int
	scrolls  int
}

func (v *recordingView) AppendMessage(msg models.ChatMessage) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.messages = append(v.messages, msg)
}

func (v *recordingView) SetTyping(visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.typing = visible
	if visible {
		v.typingOn++
	}
}

func (v *recordingView) ClearInput() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cleared++
}

func (v *recordingView) ScrollToBottom() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrolls++
}

func (v *recordingView) snapshot() (msgs []models.ChatMessage, typing bool, scrolls int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.ChatMessage(nil), v.messages...), v.typing, v.scrolls
}

type fakeRelay struct {
	reply   string
	err     error
	gate    chan struct{}
	mu      sync.Mutex
	calls   int
	lastMsg string
}

func (f *fakeRelay) Send(ctx context.Context, message string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.lastMsg = message
	f.mu.Unlock()
	if f.gate != nil {
		<-f.gate
	}
	return f.reply, f.err
}

func (f *fakeRelay) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestController_SubmitAppendsUserMessageImmediately(t *testing.T) {
	req := require.New(t)
	relay := &fakeRelay{reply: "later", gate: make(chan struct{})}
	view := &recordingView{}
	c := NewController(relay, view)

	req.NoError(c.Submit(context.Background(), "  hello  "))

	// The relay is still blocked, so only the user message can be present.
	transcript := c.Transcript()
	req.Equal([]models.ChatMessage{{Text: "hello", Sender: models.SenderUser}}, transcript)
	req.Equal(StateSending, c.State())

	msgs, typing, _ := view.snapshot()
	req.Len(msgs, 1)
	req.True(typing)
	req.Equal(1, view.cleared)

	close(relay.gate)
	c.Close()
	req.Equal("hello", relay.lastMsg)
}

func TestController_SuccessAppendsReplyVerbatim(t *testing.T) {
	req := require.New(t)
	relay := &fakeRelay{reply: "Hi there!\n  with spacing "}
	view := &recordingView{}
	c := NewController(relay, view)

	req.NoError(c.Submit(context.Background(), "hello"))
	c.Close()

	req.Equal([]models.ChatMessage{
		{Text: "hello", Sender: models.SenderUser},
		{Text: "Hi there!\n  with spacing ", Sender: models.SenderBot},
	}, c.Transcript())
	_, typing, _ := view.snapshot()
	req.False(typing)
	req.Equal(StateIdle, c.State())
}

func TestController_FailuresAlwaysProduceOneBotMessage(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		want  string
	}{
		{"network error", "", errors.New("dial tcp: connection refused"), msgUnreachable},
		{"quota", "", &RelayError{Status: 429, Message: "API quota exceeded"}, "Error: API quota exceeded"},
		{"server error without body", "", &RelayError{Status: 502, Message: "Server error: 502"}, "Error: Server error: 502"},
		{"bad request", "", &RelayError{Status: 400, Message: "No message provided"}, "Error: No message provided"},
		{"empty reply", "", nil, msgEmptyReply},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			view := &recordingView{}
			c := NewController(&fakeRelay{reply: tc.reply, err: tc.err}, view)

			req.NoError(c.Submit(context.Background(), "hello"))
			c.Close()

			transcript := c.Transcript()
			req.Len(transcript, 2)
			req.Equal(models.SenderBot, transcript[1].Sender)
			req.Equal(tc.want, transcript[1].Text)

			_, typing, _ := view.snapshot()
			req.False(typing, "typing indicator must be hidden")
			req.Equal(StateIdle, c.State())
		})
	}
}

func TestController_BlankInputIsNoop(t *testing.T) {
	req := require.New(t)
	relay := &fakeRelay{reply: "unused"}
	view := &recordingView{}
	c := NewController(relay, view)

	for _, text := range []string{"", "   ", "\n\t"} {
		req.NoError(c.Submit(context.Background(), text))
	}
	c.Close()

	req.Empty(c.Transcript())
	req.Zero(relay.callCount())
	req.Zero(view.typingOn)
}

func TestController_RejectsSubmitWhileSending(t *testing.T) {
	req := require.New(t)
	relay := &fakeRelay{reply: "first reply", gate: make(chan struct{})}
	c := NewController(relay, &recordingView{})

	req.NoError(c.Submit(context.Background(), "first"))
	req.ErrorIs(c.Submit(context.Background(), "second"), ErrBusy)
	req.Len(c.Transcript(), 1)

	close(relay.gate)
	c.Wait()

	req.Equal(1, relay.callCount())
	req.Len(c.Transcript(), 2)

	// Back to Idle, a new submit goes through.
	relay.gate = nil
	req.NoError(c.Submit(context.Background(), "third"))
	c.Close()
	req.Len(c.Transcript(), 4)
}

func TestController_ScrollIsDebounced(t *testing.T) {
	req := require.New(t)
	view := &recordingView{}
	c := NewController(&fakeRelay{reply: "ok"}, view, WithScrollDelay(200*time.Millisecond))

	req.NoError(c.Submit(context.Background(), "hello"))
	_, _, scrolls := view.snapshot()
	req.Zero(scrolls, "scroll must wait for layout to settle")

	c.Wait()
	req.Eventually(func() bool {
		_, _, n := view.snapshot()
		return n >= 1
	}, 2*time.Second, 20*time.Millisecond)
	c.Close()
}
