// Package console implements chat.Console on a pair of byte streams,
// normally stdin and stdout.
package console

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/omochice/turn-chat/internal/chat"
)

const identityPrompt = "Please enter a handle that is 1 word and 10 characters or less: "

// Terminal reads user input line by line and writes the conversation.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// New creates a Terminal.
func New(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// Prompt implements chat.Console.
func (t *Terminal) Prompt(id chat.Identity) {
	fmt.Fprintf(t.out, "%s%s", id, chat.Separator)
}

// ReadLine implements chat.Console.
func (t *Terminal) ReadLine() (string, error) {
	return t.in.ReadString('\n')
}

// Display implements chat.Console. Lines from peers that do not terminate
// their messages are given a newline.
func (t *Terminal) Display(payload []byte) {
	t.out.Write(payload)
	if !bytes.HasSuffix(payload, []byte("\n")) {
		io.WriteString(t.out, "\n")
	}
}

// Notice implements chat.Console.
func (t *Terminal) Notice(msg string) {
	fmt.Fprintln(t.out, msg)
}

// PromptIdentity asks for a handle until a valid one is entered.
func (t *Terminal) PromptIdentity() (chat.Identity, error) {
	for {
		io.WriteString(t.out, identityPrompt)
		line, err := t.ReadLine()
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read handle: %w", err)
		}

		id, perr := chat.ParseIdentity(strings.TrimSpace(line))
		if perr == nil {
			return id, nil
		}
		if err != nil {
			return "", fmt.Errorf("read handle: %w", err)
		}
	}
}

var _ chat.Console = (*Terminal)(nil)
