package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// KeyboardController handles any note-sending MIDI input: keyboards, pads,
// drum controllers.
type KeyboardController struct {
	id       string
	inPort   drivers.In
	stopFunc func()

	noteChan chan NoteEvent
}

// NewKeyboardController creates a keyboard controller (input only)
func NewKeyboardController(id string, inPort drivers.In) (*KeyboardController, error) {
	kb := &KeyboardController{
		id:       id,
		inPort:   inPort,
		noteChan: make(chan NoteEvent, 32),
	}

	// Open input
	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, kb.handle)
		if err != nil {
			return nil, fmt.Errorf("open input %s: %w", id, err)
		}
		kb.stopFunc = stop
	}

	return kb, nil
}

func (kb *KeyboardController) handle(msg gomidi.Message, timestampms int32) {
	var channel, note, velocity uint8
	if msg.GetNoteOn(&channel, &note, &velocity) && velocity > 0 {
		select {
		case kb.noteChan <- NoteEvent{Port: kb.id, Note: note, Velocity: velocity, Channel: channel}:
		default:
		}
	}
}

func (kb *KeyboardController) ID() string {
	return kb.id
}

func (kb *KeyboardController) Type() ControllerType {
	return ControllerKeyboard
}

func (kb *KeyboardController) NoteEvents() <-chan NoteEvent {
	return kb.noteChan
}

func (kb *KeyboardController) Close() error {
	if kb.stopFunc != nil {
		kb.stopFunc()
	}
	close(kb.noteChan)
	return nil
}
