package osutil

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext returns a context that is cancelled once Ctrl+C is pressed
// or SIGTERM is received. The returned stop function releases the signal
// handler.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// WaitForEnter prints prompt and blocks until a line (or EOF) is read from in.
func WaitForEnter(in io.Reader, out io.Writer, prompt string) {
	fmt.Fprint(out, prompt)
	reader := bufio.NewReader(in)
	_, _ = reader.ReadString('\n')
}
