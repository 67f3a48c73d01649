package rewrite

import (
	"context"

	"github.com/cockroachdb/errors"
	lfsm "github.com/looplab/fsm"
)

// State is a traversal state of the declaration visitor.
type State string

// Event triggers a traversal state transition.
type Event string

const (
	StateScanning        State = "scanning"
	StateInsideNamespace State = "insideNamespace"
	StateInsideClass     State = "insideClass"
	StateAborted         State = "aborted"
)

const (
	EventEnterNamespace Event = "enter_namespace"
	EventLeaveNamespace Event = "leave_namespace"
	EventEnterClass     Event = "enter_class"
	EventLeaveClassNS   Event = "leave_class_to_namespace"
	EventLeaveClassFile Event = "leave_class_to_file"
	EventAbort          Event = "abort"
)

// traversal wraps the looplab state machine driving the visitor.
type traversal struct {
	fsm *lfsm.FSM
}

func newTraversal() *traversal {
	events := lfsm.Events{
		{Name: string(EventEnterNamespace), Src: []string{string(StateScanning), string(StateInsideNamespace)}, Dst: string(StateInsideNamespace)},
		{Name: string(EventLeaveNamespace), Src: []string{string(StateInsideNamespace)}, Dst: string(StateScanning)},
		{Name: string(EventEnterClass), Src: []string{string(StateScanning), string(StateInsideNamespace)}, Dst: string(StateInsideClass)},
		{Name: string(EventLeaveClassNS), Src: []string{string(StateInsideClass)}, Dst: string(StateInsideNamespace)},
		{Name: string(EventLeaveClassFile), Src: []string{string(StateInsideClass)}, Dst: string(StateScanning)},
		{Name: string(EventAbort), Src: []string{string(StateScanning), string(StateInsideNamespace), string(StateInsideClass)}, Dst: string(StateAborted)},
	}
	return &traversal{fsm: lfsm.NewFSM(string(StateScanning), events, lfsm.Callbacks{})}
}

// Current returns the current state.
func (t *traversal) Current() State {
	return State(t.fsm.Current())
}

// Aborted reports whether the traversal reached the aborted state.
func (t *traversal) Aborted() bool {
	return t.fsm.Is(string(StateAborted))
}

// Fire triggers event. Self transitions are not errors.
func (t *traversal) Fire(ctx context.Context, event Event) error {
	err := t.fsm.Event(ctx, string(event))
	if err == nil {
		return nil
	}
	var noTransition lfsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}
	return errors.AssertionFailedf("traversal event %s in state %s: %v", event, t.Current(), err)
}
