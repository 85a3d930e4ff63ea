package midi

import (
	"context"
	"errors"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"cyberdrum/debug"
)

// ErrDriverTimeout is returned when the MIDI driver does not answer a port
// query. CoreMIDI is known to hang this way.
var ErrDriverTimeout = errors.New("midi driver did not respond")

// driverTimeout bounds a single port query
const driverTimeout = 3 * time.Second

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

func (t DeviceEventType) String() string {
	if t == DeviceConnected {
		return "connected"
	}
	return "disconnected"
}

// DeviceManager handles hot-plug detection of MIDI inputs and merges their
// notes onto one channel.
type DeviceManager struct {
	controllers map[string]Controller
	mu          sync.RWMutex
	events      chan DeviceEvent
	notes       chan NoteEvent
	pollRate    time.Duration
	accept      func(name string) bool
	wg          sync.WaitGroup
}

// NewDeviceManager creates a device manager. accept decides which input
// ports are opened; nil accepts every port.
func NewDeviceManager(accept func(name string) bool) *DeviceManager {
	if accept == nil {
		accept = func(string) bool { return true }
	}
	return &DeviceManager{
		controllers: make(map[string]Controller),
		events:      make(chan DeviceEvent, 16),
		notes:       make(chan NoteEvent, 64),
		pollRate:    time.Second,
		accept:      accept,
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Notes returns the merged note stream of every connected controller
func (dm *DeviceManager) Notes() <-chan NoteEvent {
	return dm.notes
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	copy := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		copy[k] = v
	}
	return copy
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	// Initial scan
	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			dm.wg.Wait()
			close(dm.events)
			close(dm.notes)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

func (dm *DeviceManager) scan() {
	inPorts, _, err := queryPorts(driverTimeout)
	if err != nil {
		// Skip this scan; the next tick tries again
		debug.LogEvery(30, "midi", "port scan: %v", err)
		return
	}

	seenIDs := make(map[string]bool)
	for _, inPort := range inPorts {
		id := inPort.String()
		if !dm.accept(id) {
			continue
		}
		seenIDs[id] = true

		dm.mu.RLock()
		_, exists := dm.controllers[id]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		kb, err := NewKeyboardController(id, inPort)
		if err != nil {
			debug.Log("midi", "open %s: %v", id, err)
			continue
		}

		dm.mu.Lock()
		dm.controllers[id] = kb
		dm.mu.Unlock()
		dm.forward(kb)

		debug.Log("midi", "connected %s", id)
		dm.emit(DeviceEvent{Type: DeviceConnected, Controller: kb, ID: id})
	}

	// Check for disconnects
	dm.mu.Lock()
	var removed []string
	for id, c := range dm.controllers {
		if !seenIDs[id] {
			c.Close()
			delete(dm.controllers, id)
			removed = append(removed, id)
		}
	}
	dm.mu.Unlock()

	for _, id := range removed {
		debug.Log("midi", "disconnected %s", id)
		dm.emit(DeviceEvent{Type: DeviceDisconnected, ID: id})
	}
}

// forward copies a controller's notes to the merged stream until it closes
func (dm *DeviceManager) forward(c Controller) {
	dm.wg.Add(1)
	go func() {
		defer dm.wg.Done()
		for ev := range c.NoteEvents() {
			select {
			case dm.notes <- ev:
			default:
			}
		}
	}()
}

func (dm *DeviceManager) emit(ev DeviceEvent) {
	select {
	case dm.events <- ev:
	default:
	}
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
}

// Ports lists input and output port names
func Ports() (ins, outs []string, err error) {
	inPorts, outPorts, err := queryPorts(driverTimeout)
	if err != nil {
		return nil, nil, err
	}
	for _, p := range inPorts {
		ins = append(ins, p.String())
	}
	for _, p := range outPorts {
		outs = append(outs, p.String())
	}
	return ins, outs, nil
}

// queryPorts asks the driver for its ports, giving up after timeout
func queryPorts(timeout time.Duration) ([]drivers.In, []drivers.Out, error) {
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{inPorts: gomidi.GetInPorts(), outPorts: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		return r.inPorts, r.outPorts, nil
	case <-time.After(timeout):
		return nil, nil, ErrDriverTimeout
	}
}
