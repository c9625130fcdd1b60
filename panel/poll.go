package panel

import (
	"context"
	"time"

	"github.com/hubertat/opbox"
)

// ButtonEvent is a change of one button seen by the poller.
type ButtonEvent struct {
	Button  opbox.Button
	Pressed bool
	At      time.Time
}

type ButtonListener interface {
	ButtonChanged(ButtonEvent)
}

// Subscribe registers l for button changes. Call it before Poll.
func (p *Panel) Subscribe(l ButtonListener) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.listeners = append(p.listeners, l)
}

// Sync reads all buttons once and notifies listeners about every button that
// changed since the previous Sync.
func (p *Panel) Sync() error {
	pressed, err := p.Buttons()
	if err != nil {
		return err
	}

	now := time.Now()
	p.lock.Lock()
	events := []ButtonEvent{}
	for i, state := range pressed {
		if state != p.last[i] {
			events = append(events, ButtonEvent{Button: opbox.Button(i), Pressed: state, At: now})
		}
	}
	p.last = pressed
	listeners := append([]ButtonListener{}, p.listeners...)
	p.lock.Unlock()

	for _, ev := range events {
		p.logger.Debug("button changed", "button", ev.Button+1, "pressed", ev.Pressed)
		for _, l := range listeners {
			l.ButtonChanged(ev)
		}
	}
	return nil
}

// Poll calls Sync every interval until ctx is done. Pin faults are logged and
// polling goes on.
func (p *Panel) Poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Sync(); err != nil {
				p.logger.Error("failed to poll buttons", "err", err)
			}
		}
	}
}
