package gbc

import (
	"sync"
	"sync/atomic"

	"gbcore/pkg/instr"
)

type MessageKind uint8

const (
	// MessageInstruction carries an instruction about to execute.
	MessageInstruction MessageKind = iota
	// MessageStep marks the end of a step.
	MessageStep
)

type Message struct {
	Kind        MessageKind
	PC          uint16
	Instruction instr.Instruction
	Cycles      uint8
}

// Inspector is a buffered channel of Messages the console fills while it runs.
// Sends never block: when the buffer is full or the inspector is closed the
// message is dropped.
type Inspector struct {
	mu      sync.Mutex
	ch      chan Message
	closed  bool
	dropped atomic.Uint64
}

func NewInspector(buffer int) *Inspector {
	return &Inspector{ch: make(chan Message, buffer)}
}

func (in *Inspector) Messages() <-chan Message {
	return in.ch
}

// Dropped counts messages that could not be delivered.
func (in *Inspector) Dropped() uint64 {
	return in.dropped.Load()
}

// Close ends the stream. The console keeps running and later messages are
// dropped.
func (in *Inspector) Close() {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.closed {
		in.closed = true
		close(in.ch)
	}
}

func (in *Inspector) send(msg Message) {
	if in == nil {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		in.dropped.Add(1)
		return
	}
	select {
	case in.ch <- msg:
	default:
		in.dropped.Add(1)
	}
}
