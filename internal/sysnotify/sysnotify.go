// Copyright © 2017 Microsoft <wastore@microsoft.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package sysnotify bridges process signals to systemd's notify protocol
// and to the rest of the relay's shutdown path: SIGINT/SIGTERM/SIGQUIT
// cancel the server context directly, while SIGHUP forks a replacement
// process (for a config reload without dropping the listening sockets)
// and gives the old one 30s to drain before exiting.
package sysnotify

import (
	"context"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"
)

// readyDelay mirrors common/systemd.rs's hard-coded 1s sleep before
// announcing readiness (left unconfigurable there too).
const readyDelay = time.Second

// reexecDrain is how long the old process waits after forking a
// replacement before exiting, matching common/systemd.rs's exit_after(30s).
const reexecDrain = 30 * time.Second

// Run installs signal handling and starts the delayed systemd READY
// notification. cancel is called once a terminating signal arrives, after
// which the caller's server pair (see internal/httpserver) is expected to
// shut down and the process to exit.
func Run(cancel context.CancelFunc, log *zap.SugaredLogger) {
	go notifyReadyAfterDelay(log)
	go handleSignals(cancel, log)
}

func notifyReadyAfterDelay(log *zap.SugaredLogger) {
	time.Sleep(readyDelay)
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil && log != nil {
		log.Errorw("notify ready", "error", err)
	}
}

func handleSignals(cancel context.CancelFunc, log *zap.SugaredLogger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)

	sig := <-sigCh
	if log != nil {
		log.Infow("received signal", "signal", sig.String())
	}

	if sig == syscall.SIGHUP {
		pid, err := reexec()
		if err != nil {
			if log != nil {
				log.Errorw("reexec on SIGHUP", "error", err)
			}
			os.Exit(1)
		}

		if _, err := daemon.SdNotify(false, daemon.SdNotifyReloading, daemon.SdNotifyMainPID(pid)); err != nil && log != nil {
			log.Errorw("notify reloading", "error", err)
		}

		cancel()
		time.AfterFunc(reexecDrain, func() { os.Exit(0) })
		return
	}

	_, _ = daemon.SdNotify(true, daemon.SdNotifyStopping)
	cancel()

	if sig == syscall.SIGINT {
		os.Exit(0)
	}
}

func reexec() (pid int, err error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, err
	}

	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Stdin = nil
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	return cmd.Process.Pid, nil
}
