package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"chatrelay/internal/models"
)

const (
	defaultScrollDelay = 100 * time.Millisecond

	msgUnreachable  = "Sorry, I couldn't reach the server."
	msgEmptyReply   = "Sorry, I didn't understand that."
	errorTextPrefix = "Error: "
)

var ErrBusy = errors.New("a message is already in flight")

type State int

const (
	StateIdle State = iota
	StateSending
)

func (s State) String() string {
	if s == StateSending {
		return "sending"
	}
	return "idle"
}

// View renders controller output. Calls are made from the controller's
// goroutines and must not call back into the controller.
type View interface {
	AppendMessage(msg models.ChatMessage)
	SetTyping(visible bool)
	ClearInput()
	ScrollToBottom()
}

// Relay sends one message and returns the reply.
type Relay interface {
	Send(ctx context.Context, message string) (string, error)
}

type Option func(*Controller)

// WithScrollDelay sets how long after the last append the view scrolls.
func WithScrollDelay(d time.Duration) Option {
	return func(c *Controller) { c.scrollDelay = d }
}

// Controller drives one chat session: Idle -> Sending -> Idle.
// At most one relay call is in flight at a time.
type Controller struct {
	relay       Relay
	view        View
	scrollDelay time.Duration

	mu          sync.Mutex
	state       State
	transcript  []models.ChatMessage
	scrollTimer *time.Timer

	wg sync.WaitGroup
}

func NewController(relay Relay, view View, opts ...Option) *Controller {
	c := &Controller{
		relay:       relay,
		view:        view,
		scrollDelay: defaultScrollDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit appends the user message right away and starts the relay call in
// the background. Blank text is ignored; a submit while Sending returns ErrBusy.
func (c *Controller) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.mu.Lock()
	if c.state == StateSending {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = StateSending
	c.appendLocked(models.ChatMessage{Text: text, Sender: models.SenderUser})
	c.mu.Unlock()

	c.view.ClearInput()
	c.view.SetTyping(true)
	c.scheduleScroll()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		reply, err := c.relay.Send(ctx, text)
		c.onRelayResult(reply, err)
	}()

	return nil
}

func (c *Controller) onRelayResult(reply string, err error) {
	defer func() {
		c.view.SetTyping(false)
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
	}()

	text := reply
	switch {
	case err != nil:
		text = failureText(err)
	case strings.TrimSpace(reply) == "":
		text = msgEmptyReply
	}

	c.mu.Lock()
	c.appendLocked(models.ChatMessage{Text: text, Sender: models.SenderBot})
	c.mu.Unlock()
}

func failureText(err error) string {
	var relayErr *RelayError
	if errors.As(err, &relayErr) && relayErr.Message != "" {
		return errorTextPrefix + relayErr.Message
	}
	return msgUnreachable
}

func (c *Controller) appendLocked(msg models.ChatMessage) {
	c.transcript = append(c.transcript, msg)
	c.view.AppendMessage(msg)
	c.scheduleScrollLocked()
}

func (c *Controller) scheduleScroll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scheduleScrollLocked()
}

func (c *Controller) scheduleScrollLocked() {
	if c.scrollTimer != nil {
		c.scrollTimer.Stop()
	}
	c.scrollTimer = time.AfterFunc(c.scrollDelay, c.view.ScrollToBottom)
}

// Wait blocks until the in-flight relay call, if any, has been handled.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close waits for the in-flight call and cancels any pending scroll.
func (c *Controller) Close() {
	c.wg.Wait()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scrollTimer != nil {
		c.scrollTimer.Stop()
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transcript returns a copy of the messages in arrival order.
func (c *Controller) Transcript() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ChatMessage, len(c.transcript))
	copy(out, c.transcript)
	return out
}
