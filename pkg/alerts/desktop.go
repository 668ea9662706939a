package alerts

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultDesktopCommand is the freedesktop notification helper.
const DefaultDesktopCommand = "notify-send"

// DesktopNotifier raises a desktop notification by running a command with
// the message as its last argument.
type DesktopNotifier struct {
	command string
	args    []string
}

// NewDesktopNotifier creates a desktop notifier. An empty command means
// notify-send.
func NewDesktopNotifier(command string, args ...string) *DesktopNotifier {
	if command == "" {
		command = DefaultDesktopCommand
	}
	return &DesktopNotifier{command: command, args: args}
}

func (d *DesktopNotifier) Name() string { return "desktop" }

func (d *DesktopNotifier) Send(ctx context.Context, alert Alert) error {
	args := append(append([]string(nil), d.args...), alert.Message)
	cmd := exec.CommandContext(ctx, d.command, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("run %s: %w: %s", d.command, err, msg)
		}
		return fmt.Errorf("run %s: %w", d.command, err)
	}
	return nil
}
