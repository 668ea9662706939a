package alerts_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/balchk/pkg/alerts"
	"github.com/ogulcanaydogan/balchk/pkg/model"
)

func TestDesktopNotifier_Name(t *testing.T) {
	assert.Equal(t, "desktop", alerts.NewDesktopNotifier("").Name())
}

func TestDesktopNotifier_Send(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	out := filepath.Join(t.TempDir(), "message")

	// sh -c 'script' name arg: the message lands in $1.
	n := alerts.NewDesktopNotifier("/bin/sh", "-c", `printf '%s' "$1" > "`+out+`"`, "notify")
	err := n.Send(context.Background(), sampleAlert(model.ReasonNoPriorState))
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Current balance is 85.5", string(data))
}

func TestDesktopNotifier_Send_CommandFails(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	n := alerts.NewDesktopNotifier("/bin/sh", "-c", "echo no display >&2; exit 3", "notify")

	err := n.Send(context.Background(), sampleAlert(model.ReasonNoPriorState))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no display")
}

func TestDesktopNotifier_Send_MissingCommand(t *testing.T) {
	n := alerts.NewDesktopNotifier(filepath.Join(t.TempDir(), "does-not-exist"))

	err := n.Send(context.Background(), sampleAlert(model.ReasonNoPriorState))
	assert.Error(t, err)
}
