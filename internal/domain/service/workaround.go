package service

import (
	"context"
	"sync"
	"time"

	"floodlight-bridge/internal/domain/model"
)

// hdrWorkaround re-applies HDR mode after the night vision LEDs switch,
// because some floodlight firmware drops the HDR setting on that transition.
// At most one loop runs per floodlight; start and stop are idempotent.
type hdrWorkaround struct {
	d        *Floodlight
	interval time.Duration
	delay    time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func newHdrWorkaround(d *Floodlight, opts Options) *hdrWorkaround {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultOptions().PollInterval
	}
	if opts.ReapplyDelay < 0 {
		opts.ReapplyDelay = 0
	}
	return &hdrWorkaround{
		d:        d,
		interval: opts.PollInterval,
		delay:    opts.ReapplyDelay,
	}
}

func (w *hdrWorkaround) running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancel != nil
}

// start launches the loop unless it is already running. The loop outlives
// ctx's cancellation; only stop or a cleared flag ends it.
func (w *hdrWorkaround) start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	w.cancel = cancel
	w.done = done

	w.d.resetInfraLedState()
	w.d.logger.Info("hdr workaround started", "interval", w.interval)

	go func() {
		defer close(done)
		defer cancel()
		w.run(loopCtx, done)
	}()
}

// retire unregisters the loop identified by done if the flag or the
// credentials are gone. The check runs under w.mu so a concurrent start
// either sees the loop still registered and the flag set, or no loop at all.
func (w *hdrWorkaround) retire(ctx context.Context, done chan struct{}) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.d.workaroundEnabled(ctx) && w.d.credentials(ctx).Configured() {
		return false
	}
	if w.done == done {
		w.cancel = nil
		w.done = nil
	}
	return true
}

// stop cancels the loop and waits for it to return, so no device request is
// issued by it afterwards.
func (w *hdrWorkaround) stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel = nil
	w.done = nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	w.d.logger.Info("hdr workaround stopped")
}

func (w *hdrWorkaround) run(ctx context.Context, done chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		creds := w.d.credentials(ctx)
		if !w.d.workaroundEnabled(ctx) || !creds.Configured() {
			if w.retire(ctx, done) {
				w.d.logger.Info("hdr workaround disabled, leaving poll loop")
				return
			}
			continue
		}

		w.poll(ctx, creds)
	}
}

func (w *hdrWorkaround) poll(ctx context.Context, creds model.Credentials) {
	var st model.DevState
	err := w.d.exclusive(func() error {
		var err error
		st, err = w.d.device.GetDevState(ctx, creds)
		return err
	})
	if err != nil {
		if ctx.Err() == nil {
			w.d.logger.Warn("reading device state failed", "ip", creds.Address, "error", err)
		}
		return
	}

	last, seen := w.d.InfraLedState()
	w.d.setInfraLedState(st.InfraLedState)
	if !seen || last == st.InfraLedState {
		return
	}

	w.d.logger.Info("infra led state changed", "from", last, "to", st.InfraLedState)
	w.reapply(ctx, creds)
}

func (w *hdrWorkaround) reapply(ctx context.Context, creds model.Credentials) {
	var mode int
	err := w.d.exclusive(func() error {
		var err error
		mode, err = w.d.device.GetHdrMode(ctx, creds)
		return err
	})
	if err != nil {
		if ctx.Err() == nil {
			w.d.logger.Warn("reading hdr mode failed", "ip", creds.Address, "error", err)
		}
		return
	}
	if mode != model.HdrModeOn {
		return
	}

	timer := time.NewTimer(w.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	err = w.d.exclusive(func() error {
		return w.d.device.SetHdrMode(ctx, creds, model.HdrModeOn)
	})
	if err != nil {
		if ctx.Err() == nil {
			w.d.logger.Warn("re-applying hdr mode failed", "ip", creds.Address, "error", err)
		}
		return
	}
	w.d.logger.Info("hdr mode re-applied", "ip", creds.Address)
}
