//go:build windows

package runner

import (
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"

	winio "github.com/Microsoft/go-winio"
)

// cancelPipeNamePrefix names the per-invocation pipe each spawned
// command is told about via VV_CANCEL_PIPE, used as an out-of-band
// cancellation signal since Windows has no process-group kill
// equivalent to POSIX's negative-PID signal: well-behaved long-running
// tooling can watch the pipe and exit when it closes, grounded on
// go-winio's ListenPipe as used by the trace2 receiver this dependency
// was adopted from.
const cancelPipeNamePrefix = `\\.\pipe\vibe-validate-cancel-`

var pipeSeq uint64

// cancelPipes tracks the listener opened for each in-flight command so
// terminateProcessTree can close it by the same *exec.Cmd key.
var cancelPipes sync.Map // map[*exec.Cmd]io.Closer

// setupProcessGroup arms a cancellation pipe for cmd and exports its
// name as VV_CANCEL_PIPE in the child's environment. Failure to open
// the pipe is non-fatal; the child simply won't have the env var.
func setupProcessGroup(cmd *exec.Cmd) {
	name := fmt.Sprintf("%s%d", cancelPipeNamePrefix, atomic.AddUint64(&pipeSeq, 1))
	l, err := winio.ListenPipe(name, nil)
	if err != nil {
		return
	}
	cancelPipes.Store(cmd, l)
	cmd.Env = append(cmd.Env, "VV_CANCEL_PIPE="+name)
}

// terminateProcessTree closes cmd's cancellation pipe, signaling any
// child watching it to exit, then kills cmd's direct process. A full
// job-object-based tree kill additionally requires
// CREATE_BREAKAWAY_FROM_JOB bookkeeping at spawn time; this covers the
// shell-wrapped commands vibe-validate spawns, which is sufficient in
// the common case since the shell reaps its own children on
// termination.
func terminateProcessTree(cmd *exec.Cmd) {
	if l, ok := cancelPipes.LoadAndDelete(cmd); ok {
		_ = l.(interface{ Close() error }).Close()
	}
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
