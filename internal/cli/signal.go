package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// ExitInterrupted is the exit status after Ctrl+C.
const ExitInterrupted = 130

// SignalHandler cancels a context on SIGINT or SIGTERM. A second signal
// while shutting down exits immediately.
type SignalHandler struct {
	ctx    context.Context
	cancel context.CancelFunc
	sigCh  chan os.Signal
	errOut io.Writer
	exit   func(int)

	once        sync.Once
	mu          sync.Mutex
	interrupted bool
}

// NewSignalHandler starts watching for interrupt signals. Notices are
// written to errOut.
func NewSignalHandler(errOut io.Writer) *SignalHandler {
	h := newSignalHandler(errOut, os.Exit)
	signal.Notify(h.sigCh, syscall.SIGINT, syscall.SIGTERM)
	go h.watch()
	return h
}

func newSignalHandler(errOut io.Writer, exit func(int)) *SignalHandler {
	ctx, cancel := context.WithCancel(context.Background())
	return &SignalHandler{
		ctx:    ctx,
		cancel: cancel,
		sigCh:  make(chan os.Signal, 1),
		errOut: errOut,
		exit:   exit,
	}
}

// Context is cancelled on the first signal.
func (h *SignalHandler) Context() context.Context {
	return h.ctx
}

// Interrupted reports whether a signal was received.
func (h *SignalHandler) Interrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}

// Shutdown cancels the context without a signal.
func (h *SignalHandler) Shutdown() {
	h.once.Do(h.cancel)
}

func (h *SignalHandler) watch() {
	for {
		select {
		case _, ok := <-h.sigCh:
			if !ok {
				return
			}
			h.handle()
		case <-h.ctx.Done():
			// Keep listening so a second Ctrl+C still force-quits.
			for range h.sigCh {
				h.handle()
			}
			return
		}
	}
}

func (h *SignalHandler) handle() {
	h.mu.Lock()
	again := h.interrupted
	h.interrupted = true
	h.mu.Unlock()

	if again {
		fmt.Fprintln(h.errOut, "\nForce quit")
		h.exit(ExitInterrupted)
		return
	}
	fmt.Fprintln(h.errOut, "\nInterrupted")
	h.Shutdown()
}

// Stop releases resources and stops watching for signals.
func (h *SignalHandler) Stop() {
	signal.Stop(h.sigCh)
	close(h.sigCh)
	h.Shutdown()
}
