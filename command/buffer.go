package command

import (
	"fmt"
	"sync"

	"github.com/gogpu/softvk/handle"
)

// State is the lifecycle state of a command buffer.
type State uint8

const (
	StateInitial State = iota
	StateRecording
	StateExecutable
	// StateInvalid is StateExecutable after a failed recording.
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "Initial"
	case StateRecording:
		return "Recording"
	case StateExecutable:
		return "Executable"
	case StateInvalid:
		return "Invalid"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Level is the command buffer level.
type Level uint8

const (
	LevelPrimary Level = iota
	LevelSecondary
)

// Buffer is a command buffer. It is owned by the Pool it was allocated from.
type Buffer struct {
	pool  *Pool
	level Level

	// Handle is the API handle the buffer is registered under, if any.
	Handle handle.Handle

	mu       sync.Mutex
	state    State
	cmds     []Command
	recorded int
	err      error
}

// Pool returns the owning pool.
func (b *Buffer) Pool() *Pool { return b.pool }

// Level returns the buffer level.
func (b *Buffer) Level() Level { return b.level }

// State returns the current state.
func (b *Buffer) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateExecutable && b.err != nil {
		return StateInvalid
	}
	return b.state
}

// Begin starts recording, discarding earlier commands and errors.
// Begin panics if the buffer is already recording.
func (b *Buffer) Begin() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateRecording {
		panic("command: Begin on a buffer that is recording")
	}
	b.clear()
	b.state = StateRecording
}

// Record appends cmd, or keeps err if it is the first failure since Begin.
// It takes the results of a command constructor directly:
//
//	cb.Record(command.CopyBuffer(src, dst, regions))
//
// Record panics unless the buffer is recording.
func (b *Buffer) Record(cmd Command, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateRecording {
		panic(fmt.Sprintf("command: Record on a buffer in state %v", b.state))
	}
	b.recorded++
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return
	}
	if cmd.Kind != KindNone {
		b.cmds = append(b.cmds, cmd)
	}
}

// End finishes recording and returns the first recording failure.
func (b *Buffer) End() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateRecording {
		panic(fmt.Sprintf("command: End on a buffer in state %v", b.state))
	}
	b.state = StateExecutable
	return b.err
}

// Reset returns the buffer to the initial state.
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.clear()
	b.state = StateInitial
	b.mu.Unlock()
}

func (b *Buffer) clear() {
	b.cmds = nil
	b.recorded = 0
	b.err = nil
}

// Err returns the first failure recorded since Begin.
func (b *Buffer) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Len returns the number of recorded commands.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.cmds)
}

// Recorded returns the number of Record calls since Begin, including those
// that failed.
func (b *Buffer) Recorded() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.recorded
}

// Commands returns a copy of the recorded command list.
func (b *Buffer) Commands() []Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Command(nil), b.cmds...)
}

// Run replays the recorded commands in order. The command list is not
// modified.
func (b *Buffer) Run(s *RunningState) error {
	b.mu.Lock()
	if b.state != StateExecutable || b.err != nil {
		state := b.state
		b.mu.Unlock()
		return fmt.Errorf("%w: state %v", ErrNotExecutable, state)
	}
	cmds := b.cmds
	b.mu.Unlock()

	for i := range cmds {
		if err := cmds[i].Run(s); err != nil {
			return fmt.Errorf("command %d: %w", i, err)
		}
	}
	return nil
}
