package surface

import (
	"os/exec"
	"runtime"
	"sync"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/sirupsen/logrus"

	"github.com/nansu0425/RandomPitchPlayer/logger"
)

// KeepAwake holds off system sleep by running an inhibitor process for as
// long as a session is active.
type KeepAwake struct {
	mu      sync.Mutex
	command []string
	cmd     *exec.Cmd
	done    chan error
	logger  *logrus.Logger
}

// NewKeepAwake picks the inhibitor for the current platform. It is
// unavailable where none is known.
func NewKeepAwake() *KeepAwake {
	switch runtime.GOOS {
	case "darwin":
		return NewKeepAwakeCommand("caffeinate", "-dims")
	case "linux":
		return NewKeepAwakeCommand("systemd-inhibit",
			"--what=idle:sleep",
			"--who=RandomPitchPlayer",
			"--why=Pitch session running",
			"sleep", "infinity")
	default:
		return NewKeepAwakeCommand()
	}
}

// NewKeepAwakeCommand runs the given command as the inhibitor. It must block
// until killed.
func NewKeepAwakeCommand(command ...string) *KeepAwake {
	return &KeepAwake{
		command: command,
		logger:  logger.GetProjectLogger(),
	}
}

func (k *KeepAwake) Available() bool {
	if len(k.command) == 0 {
		return false
	}
	_, err := exec.LookPath(k.command[0])
	return err == nil
}

// Active reports whether the inhibitor is running.
func (k *KeepAwake) Active() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.cmd != nil
}

func (k *KeepAwake) BeginKeepAwake() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.cmd != nil || !k.Available() {
		return nil
	}

	cmd := exec.Command(k.command[0], k.command[1:]...)
	if err := cmd.Start(); err != nil {
		return errors.WithStackTrace(err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	k.cmd = cmd
	k.done = done
	k.logger.WithField("command", k.command[0]).Debug("Keep awake started")
	return nil
}

func (k *KeepAwake) EndKeepAwake() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.cmd == nil {
		return nil
	}
	cmd, done := k.cmd, k.done
	k.cmd, k.done = nil, nil

	select {
	case <-done:
		// the inhibitor already exited
		return nil
	default:
	}

	if err := cmd.Process.Kill(); err != nil {
		return errors.WithStackTrace(err)
	}
	<-done
	k.logger.WithField("command", k.command[0]).Debug("Keep awake ended")
	return nil
}
