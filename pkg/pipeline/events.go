package pipeline

import "github.com/kataras/go-events"

const (
	eventStateChanged = "pipeline:state_changed"
	eventFrameDone    = "pipeline:frame_done"
)

// Emitter fans out pipeline progress to any number of subscribers —
// a progress bar, a log line, a test assertion — without the pipeline
// itself knowing who's listening.
type Emitter struct {
	ee events.EventEmmiter
}

// NewEmitter returns a ready-to-use Emitter.
func NewEmitter() *Emitter {
	return &Emitter{ee: events.New()}
}

// OnStateChanged registers fn to run whenever the state machine
// transitions.
func (e *Emitter) OnStateChanged(fn func(from, to State)) {
	e.ee.On(eventStateChanged, func(payload ...interface{}) {
		if len(payload) != 2 {
			return
		}
		from, ok1 := payload[0].(State)
		to, ok2 := payload[1].(State)
		if ok1 && ok2 {
			fn(from, to)
		}
	})
}

func (e *Emitter) emitStateChanged(from, to State) {
	e.ee.Emit(eventStateChanged, from, to)
}

// OnFrameDone registers fn to run after each frame is ciphered, with its
// zero-based index in processing order.
func (e *Emitter) OnFrameDone(fn func(index int)) {
	e.ee.On(eventFrameDone, func(payload ...interface{}) {
		if len(payload) != 1 {
			return
		}
		if idx, ok := payload[0].(int); ok {
			fn(idx)
		}
	})
}

func (e *Emitter) emitFrameDone(index int) {
	e.ee.Emit(eventFrameDone, index)
}
