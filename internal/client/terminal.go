package client

import (
	"fmt"
	"io"
	"sync"

	"github.com/gookit/color"

	"chatrelay/internal/models"
)

const typingText = "bot is typing..."

// TerminalView renders the transcript as colored lines. The typing
// indicator is a transient line that is erased before the next message.
type TerminalView struct {
	mu     sync.Mutex
	out    io.Writer
	typing bool
}

func NewTerminalView(out io.Writer) *TerminalView {
	return &TerminalView{out: out}
}

func (v *TerminalView) AppendMessage(msg models.ChatMessage) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.clearTypingLocked()
	label := color.Cyan.Sprint("you")
	if msg.Sender == models.SenderBot {
		label = color.Green.Sprint("bot")
	}
	fmt.Fprintf(v.out, "%s> %s\n", label, msg.Text)
	if v.typing {
		v.drawTypingLocked()
	}
}

func (v *TerminalView) SetTyping(visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if visible == v.typing {
		return
	}
	if visible {
		v.drawTypingLocked()
	} else {
		v.clearTypingLocked()
	}
	v.typing = visible
}

// Input is read line by line, so there is nothing to clear.
func (v *TerminalView) ClearInput() {}

// Terminals keep the newest line in view on their own.
func (v *TerminalView) ScrollToBottom() {}

func (v *TerminalView) drawTypingLocked() {
	fmt.Fprint(v.out, color.FgDarkGray.Sprint(typingText))
}

func (v *TerminalView) clearTypingLocked() {
	if v.typing {
		fmt.Fprint(v.out, "\r\033[K")
	}
}
