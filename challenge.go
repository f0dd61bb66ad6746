package douyin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// ChallengeHandler hands control to a human when the platform asks for a
// slider, CAPTCHA or account verification. AwaitClearance returns once the
// operator reports the challenge is done.
type ChallengeHandler interface {
	AwaitClearance(ctx context.Context, reason string) error
}

// ConsoleChallenge asks the operator on the terminal and waits for Enter.
// There is no timeout; only ctx cancellation ends the wait early. One
// goroutine owns the reader for the life of the value, so a cancelled wait
// never leaves a second reader behind.
type ConsoleChallenge struct {
	in    *bufio.Reader
	out   io.Writer
	isTTY bool

	start   sync.Once
	lines   chan struct{}
	readErr error // set before lines is closed
}

// NewConsoleChallenge reads from stdin and writes to stdout.
func NewConsoleChallenge() *ConsoleChallenge {
	c := NewConsoleChallengeIO(os.Stdin, os.Stdout)
	c.isTTY = term.IsTerminal(int(os.Stdin.Fd()))
	return c
}

// NewConsoleChallengeIO uses the given reader and writer.
func NewConsoleChallengeIO(in io.Reader, out io.Writer) *ConsoleChallenge {
	return &ConsoleChallenge{
		in:    bufio.NewReader(in),
		out:   out,
		isTTY: true,
		lines: make(chan struct{}),
	}
}

// readLines delivers one token per input line until the reader fails.
func (c *ConsoleChallenge) readLines() {
	for {
		if _, err := c.in.ReadString('\n'); err != nil {
			c.readErr = err
			close(c.lines)
			return
		}
		c.lines <- struct{}{}
	}
}

func (c *ConsoleChallenge) AwaitClearance(ctx context.Context, reason string) error {
	fmt.Fprintf(c.out, "\n%s\n", reason)
	fmt.Fprintln(c.out, "1. Complete the verification in the open browser window")
	fmt.Fprintln(c.out, "2. Confirm the page loads normally")
	fmt.Fprintln(c.out, "3. Press Enter to continue...")
	if !c.isTTY {
		fmt.Fprintln(c.out, "(stdin is not a terminal; waiting for a line on stdin)")
	}

	c.start.Do(func() { go c.readLines() })

	select {
	case <-ctx.Done():
		return ctx.Err()
	case _, ok := <-c.lines:
		if ok {
			return nil
		}
		// Closed input counts as confirmation so piped runs do not hang.
		if errors.Is(c.readErr, io.EOF) {
			return nil
		}
		return fmt.Errorf("read operator input: %w", c.readErr)
	}
}

// NopChallenge clears every challenge immediately.
type NopChallenge struct{}

func (NopChallenge) AwaitClearance(ctx context.Context, reason string) error {
	return ctx.Err()
}
