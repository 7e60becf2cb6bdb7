package signal

import (
	"context"
	"runtime"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetupHandler_CancelsOnSIGINT(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("signal delivery differs on windows")
	}
	ctx := SetupHandler(context.Background())

	require := func(err error) {
		if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
			t.Fatalf("sending SIGINT: %v", err)
		}
	}
	require(nil)

	select {
	case <-ctx.Done():
		assert.Equal(t, context.Canceled, ctx.Err())
	case <-time.After(2 * time.Second):
		t.Fatal("context was not cancelled after SIGINT")
	}
}

func TestSetupHandler_CancelsWhenParentCancels(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx := SetupHandler(parent)
	cancel()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled after parent cancellation")
	}
}
