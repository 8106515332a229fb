package story

import "github.com/PabloGalante/fable-engine/internal/domain"

type FrameType string

const (
	FrameStatus FrameType = "status"
	FrameDelta  FrameType = "delta"
	FrameState  FrameType = "state"
	FrameDone   FrameType = "done"
	FrameError  FrameType = "error"
)

// Frame is one server-sent event on the turn stream. Exactly one of
// done or error terminates every turn.
type Frame struct {
	Type        FrameType         `json:"type"`
	Message     string            `json:"message,omitempty"`
	Text        string            `json:"text,omitempty"`
	State       *domain.GameState `json:"state,omitempty"`
	Mechanics   *domain.Mechanics `json:"mechanics,omitempty"`
	NextActions []string          `json:"nextActions,omitempty"`
}

// FrameWriter delivers frames to the caller, in order.
type FrameWriter interface {
	Send(Frame) error
}

func StatusFrame(message string) Frame {
	return Frame{Type: FrameStatus, Message: message}
}

func DeltaFrame(text string) Frame {
	return Frame{Type: FrameDelta, Text: text}
}

func StateFrame(state *domain.GameState, mech *domain.Mechanics, nextActions []string) Frame {
	return Frame{Type: FrameState, State: state, Mechanics: mech, NextActions: nextActions}
}

func DoneFrame() Frame {
	return Frame{Type: FrameDone}
}

func ErrorFrame(message string) Frame {
	return Frame{Type: FrameError, Message: message}
}
