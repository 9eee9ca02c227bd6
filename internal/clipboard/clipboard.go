// Package clipboard copies text to the system clipboard through the terminal
// using the OSC 52 escape sequence, which also works over SSH.
package clipboard

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aymanbagabas/go-osc52/v2"
)

var getenv = os.Getenv

// Copy writes text to w wrapped in an OSC 52 sequence. Inside tmux or GNU
// screen the sequence is wrapped in the multiplexer's passthrough.
func Copy(w io.Writer, text string) error {
	seq := osc52.New(text)
	switch {
	case getenv("TMUX") != "":
		seq = seq.Tmux()
	case strings.HasPrefix(getenv("TERM"), "screen"):
		seq = seq.Screen()
	}
	if _, err := seq.WriteTo(w); err != nil {
		return fmt.Errorf("write clipboard sequence: %w", err)
	}
	return nil
}
