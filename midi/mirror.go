package midi

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"cyberdrum/debug"
)

// mirrorQueue bounds the hits waiting to be sent
const mirrorQueue = 256

// Mirror re-sends scheduled hits as NoteOn/NoteOff pairs on an output port,
// each at its own wall-clock time.
type Mirror struct {
	send    func(gomidi.Message) error
	port    drivers.Out
	channel uint8 // 0-based

	incoming chan Hit
	dropped  atomic.Int64
}

// OpenMirror opens the first output port whose name contains portName
// (case-insensitive). channel is 1-based.
func OpenMirror(portName string, channel int) (*Mirror, error) {
	_, outs, err := queryPorts(driverTimeout)
	if err != nil {
		return nil, err
	}
	want := strings.ToLower(portName)
	for _, out := range outs {
		if !strings.Contains(strings.ToLower(out.String()), want) {
			continue
		}
		send, err := gomidi.SendTo(out)
		if err != nil {
			return nil, fmt.Errorf("open output %s: %w", out.String(), err)
		}
		m := NewMirror(send, channel)
		m.port = out
		debug.Log("midi", "mirror on %s ch %d", out.String(), channel)
		return m, nil
	}
	return nil, fmt.Errorf("no midi output matching %q", portName)
}

// NewMirror creates a mirror around a send function. channel is 1-based.
func NewMirror(send func(gomidi.Message) error, channel int) *Mirror {
	if channel < 1 || channel > 16 {
		channel = DrumChannel
	}
	return &Mirror{
		send:     send,
		channel:  uint8(channel - 1),
		incoming: make(chan Hit, mirrorQueue),
	}
}

// Send queues a hit without blocking
func (m *Mirror) Send(h Hit) bool {
	select {
	case m.incoming <- h:
		return true
	default:
		m.dropped.Add(1)
		debug.LogEvery(50, "midi", "mirror queue full")
		return false
	}
}

// Dropped counts hits rejected because the queue was full
func (m *Mirror) Dropped() int64 {
	return m.dropped.Load()
}

// pending is one message waiting for its time
type pending struct {
	at  time.Time
	msg gomidi.Message
	off bool
}

// Run delivers queued hits at their times until ctx is done. Notes still
// sounding are released before it returns.
func (m *Mirror) Run(ctx context.Context) {
	var queue []pending
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	push := func(h Hit) {
		on := pending{at: h.At, msg: gomidi.NoteOn(m.channel, h.Note, h.Velocity)}
		off := pending{at: h.At.Add(h.Length), msg: gomidi.NoteOff(m.channel, h.Note), off: true}
		for _, p := range []pending{on, off} {
			i, _ := slices.BinarySearchFunc(queue, p.at, func(e pending, t time.Time) int {
				if e.at.After(t) {
					return 1
				}
				return -1
			})
			queue = slices.Insert(queue, i, p)
		}
	}

	for {
		now := time.Now()
		for len(queue) > 0 && !queue[0].at.After(now) {
			if err := m.send(queue[0].msg); err != nil {
				debug.LogEvery(50, "midi", "mirror send: %v", err)
			}
			queue = queue[1:]
		}

		wait := time.Hour
		if len(queue) > 0 {
			wait = queue[0].at.Sub(now)
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			m.flush(queue)
			return
		case h := <-m.incoming:
			push(h)
		case <-timer.C:
		}
	}
}

// flush sends the NoteOffs still queued so no note hangs
func (m *Mirror) flush(queue []pending) {
	for _, p := range queue {
		if p.off {
			m.send(p.msg)
		}
	}
}

// Close releases the output port
func (m *Mirror) Close() error {
	if m.port == nil {
		return nil
	}
	return m.port.Close()
}
