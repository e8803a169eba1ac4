package client

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"wxmcp/logx"
	"wxmcp/transport/stdio"
)

// stdioTransport runs the server as a child process and speaks wire messages
// over its stdin/stdout pipes. The child's stderr is streamed to the logger so
// server-side logging stays visible without polluting the protocol stream.
type stdioTransport struct {
	*streamTransport

	command string
	args    []string
	cmd     *exec.Cmd
	logger  logx.Logger
	exited  chan struct{} // closed once the process has been reaped

	closeOnce sync.Once
	closeErr  error
}

// newStdioTransport spawns command with args and wires a correlating session
// over its pipes. The process is already running when this returns.
func newStdioTransport(command string, args []string, logger logx.Logger) (*stdioTransport, error) {
	if logger == nil {
		logger = logx.NopLogger{}
	}
	cmd := exec.Command(command, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, NewTransportError("stdio", "failed to create stdin pipe", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, NewTransportError("stdio", "failed to create stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, NewTransportError("stdio", "failed to create stderr pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, NewTransportError("stdio", fmt.Sprintf("failed to start process %s", command), err)
	}

	t := &stdioTransport{
		command: command,
		args:    args,
		cmd:     cmd,
		logger:  logger,
		exited:  make(chan struct{}),
	}
	// The child writes on its stdout and reads on its stdin, so the pipes
	// cross here: read from stdout, write to stdin.
	t.streamTransport = newStreamTransport(stdio.NewTransportWithReadWriter(stdout, stdin, logger), logger)

	go t.forwardStderr(stderr)
	go t.reap()

	logger.Debug("started server process %s (pid %d)", command, cmd.Process.Pid)
	return t, nil
}

// forwardStderr copies the child's stderr to the logger line by line-ish;
// chunks are logged as received.
func (t *stdioTransport) forwardStderr(stderr io.ReadCloser) {
	defer stderr.Close()
	buf := make([]byte, 4096)
	for {
		n, err := stderr.Read(buf)
		if n > 0 {
			t.logger.Info("server: %s", string(buf[:n]))
		}
		if err != nil {
			if err != io.EOF {
				t.logger.Error("error reading server stderr: %v", err)
			}
			return
		}
	}
}

// reap waits for the process so it never lingers as a zombie, then tears down
// the session if it is still up.
func (t *stdioTransport) reap() {
	if err := t.cmd.Wait(); err != nil {
		if !t.streamTransport.isClosed() {
			t.logger.Error("server process exited: %v", err)
		}
	}
	close(t.exited)
	t.Close()
}

// Close shuts down the session and terminates the child process: interrupt
// first, kill after a grace period if it has not exited.
func (t *stdioTransport) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.streamTransport.Close()

		if t.cmd.Process == nil {
			return
		}
		select {
		case <-t.exited:
			return
		default:
		}
		if err := t.cmd.Process.Signal(os.Interrupt); err != nil {
			t.cmd.Process.Kill()
			return
		}
		// Give the process a moment to exit on its own before killing it.
		select {
		case <-t.exited:
		case <-time.After(2 * time.Second):
			t.cmd.Process.Kill()
		}
	})
	return t.closeErr
}

var _ RPCTransport = (*stdioTransport)(nil)
