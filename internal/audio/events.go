package audio

type eventKind int

const (
	eventThreadInit eventKind = iota
	eventBufferSize
	eventXrun
)

// event is a notification raised inside the audio callback
type event struct {
	kind   eventKind
	frames int
	xrun   XrunKind
}

// eventQueue hands callback-side events to a goroutine that is allowed to
// block, log and allocate
type eventQueue struct {
	ch   chan event
	done chan struct{}
}

func newEventQueue(size int) *eventQueue {
	return &eventQueue{
		ch:   make(chan event, size),
		done: make(chan struct{}),
	}
}

// post queues e without blocking. Events are dropped when the queue is full.
func (q *eventQueue) post(e event) bool {
	select {
	case q.ch <- e:
		return true
	default:
		return false
	}
}

// run delivers events to n until close is called
func (q *eventQueue) run(n Notifier) {
	defer close(q.done)

	for e := range q.ch {
		switch e.kind {
		case eventThreadInit:
			n.ThreadInit()
		case eventBufferSize:
			n.BufferSize(e.frames)
		case eventXrun:
			n.Xrun(e.xrun)
		}
	}
}

// close stops run after it has delivered everything already queued. No post
// may happen after close.
func (q *eventQueue) close() {
	close(q.ch)
	<-q.done
}
