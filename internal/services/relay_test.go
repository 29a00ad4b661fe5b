package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	reply string
	err   error
	block bool
	calls atomic.Int32
	last  string
}

func (s *stubProvider) Name() string  { return "stub" }
func (s *stubProvider) Model() string { return "stub-model" }
func (s *stubProvider) Close() error  { return nil }

func (s *stubProvider) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls.Add(1)
	s.last = prompt
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.reply, s.err
}

func TestRelay_Reply_Success(t *testing.T) {
	req := require.New(t)
	provider := &stubProvider{reply: "Hi there!"}
	relay := NewRelay(provider, time.Second)

	reply, err := relay.Reply(context.Background(), "hello")

	req.NoError(err)
	req.Equal("Hi there!", reply)
	req.Equal(int32(1), provider.calls.Load())
	req.Equal("hello", provider.last)
}

func TestRelay_Reply_IsRepeatable(t *testing.T) {
	req := require.New(t)
	provider := &stubProvider{reply: "same"}
	relay := NewRelay(provider, time.Second)

	first, err := relay.Reply(context.Background(), "hello")
	req.NoError(err)
	second, err := relay.Reply(context.Background(), "hello")
	req.NoError(err)

	req.Equal(first, second)
	req.Equal(int32(2), provider.calls.Load())
}

func TestRelay_Reply_EmptyMessageSkipsProvider(t *testing.T) {
	req := require.New(t)
	provider := &stubProvider{reply: "unused"}
	relay := NewRelay(provider, time.Second)

	for _, msg := range []string{"", "   ", "\n\t"} {
		_, err := relay.Reply(context.Background(), msg)
		req.ErrorIs(err, ErrEmptyMessage)
	}
	req.Zero(provider.calls.Load())
}

func TestRelay_Reply_PassesTaggedErrorThrough(t *testing.T) {
	req := require.New(t)
	provider := &stubProvider{err: &ProviderError{Kind: KindQuota, Detail: "quota exceeded"}}
	relay := NewRelay(provider, time.Second)

	_, err := relay.Reply(context.Background(), "hello")

	var perr *ProviderError
	req.ErrorAs(err, &perr)
	req.Equal(KindQuota, perr.Kind)
	req.Equal(int32(1), provider.calls.Load())
}

func TestRelay_Reply_UntaggedErrorIsUnknown(t *testing.T) {
	req := require.New(t)
	// Message text alone must not drive classification at the relay layer.
	provider := &stubProvider{err: errors.New("quota exceeded somewhere")}
	relay := NewRelay(provider, time.Second)

	_, err := relay.Reply(context.Background(), "hello")

	var perr *ProviderError
	req.ErrorAs(err, &perr)
	req.Equal(KindUnknown, perr.Kind)
	req.Contains(perr.Detail, "quota exceeded somewhere")
}

func TestRelay_Reply_Timeout(t *testing.T) {
	req := require.New(t)
	provider := &stubProvider{block: true}
	relay := NewRelay(provider, 20*time.Millisecond)

	_, err := relay.Reply(context.Background(), "hello")

	var perr *ProviderError
	req.ErrorAs(err, &perr)
	req.Equal(KindUnknown, perr.Kind)
	req.True(strings.HasPrefix(perr.Detail, "timeout"), "detail %q", perr.Detail)
}

func TestRelay_Reply_CallerCanceled(t *testing.T) {
	req := require.New(t)
	provider := &stubProvider{block: true}
	relay := NewRelay(provider, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := relay.Reply(ctx, "hello")

	var perr *ProviderError
	req.ErrorAs(err, &perr)
	req.True(strings.HasPrefix(perr.Detail, "canceled"), "detail %q", perr.Detail)
}

func TestRelay_Reply_EmptyProviderText(t *testing.T) {
	req := require.New(t)
	relay := NewRelay(&stubProvider{reply: "  "}, time.Second)

	_, err := relay.Reply(context.Background(), "hello")

	var perr *ProviderError
	req.ErrorAs(err, &perr)
	req.Equal(KindUnknown, perr.Kind)
	req.ErrorIs(err, ErrEmptyReply)
}
