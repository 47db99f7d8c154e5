package swipe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oggyb/muzz-swipe/internal/domain"
)

type CommandKind string

const (
	CommandSubmit    CommandKind = "submit"
	CommandUndo      CommandKind = "undo"
	CommandPeek      CommandKind = "peek"
	CommandRefill    CommandKind = "refill"
	CommandReconcile CommandKind = "reconcile"
)

// Command is the message-passing form of the engine API.
type Command struct {
	Kind      CommandKind
	Direction domain.Direction
	ProfileID string
}

// Event reports the outcome of a command. Submit and Undo always produce one,
// whether invoked directly or through Serve.
type Event struct {
	Command   CommandKind
	ProfileID string
	Result    Result
	// Head is set for peek events.
	Head *domain.Profile
	// Err carries peek/refill/reconcile failures (e.g. queue.ErrEmpty).
	Err      error
	Degraded bool
	At       time.Time
}

// Events delivers one Event per processed command. Slow consumers miss
// events rather than stall the engine.
func (e *Engine) Events() <-chan Event { return e.events }

// Close stops event delivery and the queue. The engine must not be used
// afterwards.
func (e *Engine) Close() {
	e.queue.Close()

	e.evMu.Lock()
	defer e.evMu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.events)
	}
}

// Handle runs one command synchronously and returns its event.
func (e *Engine) Handle(ctx context.Context, cmd Command) Event {
	switch cmd.Kind {
	case CommandSubmit:
		res := e.Submit(ctx, cmd.Direction, cmd.ProfileID)
		return e.event(CommandSubmit, cmd.ProfileID, res)
	case CommandUndo:
		res := e.Undo(ctx)
		return e.event(CommandUndo, res.Decision.ProfileID, res)
	case CommandPeek:
		ev := e.event(CommandPeek, "", Result{})
		head, err := e.Peek(ctx)
		if err != nil {
			ev.Err = err
		} else {
			ev.Head = &head
			ev.ProfileID = head.ID
		}
		ev.Degraded = e.Degraded()
		e.emit(ev)
		return ev
	case CommandRefill:
		<-e.Refill(ctx)
		ev := e.event(CommandRefill, "", Result{})
		e.emit(ev)
		return ev
	case CommandReconcile:
		ev := e.event(CommandReconcile, "", Result{})
		ev.Err = e.Reconcile(ctx)
		e.emit(ev)
		return ev
	default:
		ev := e.event(cmd.Kind, cmd.ProfileID, Result{})
		ev.Err = fmt.Errorf("unknown command %q", cmd.Kind)
		e.emit(ev)
		return ev
	}
}

// Serve consumes commands until ctx ends or cmds is closed. Commands run
// concurrently so that a duplicate submit observes ErrInProgress instead of
// queueing behind the first; results arrive on Events.
//
// Commands sent back to back are not ordered: an undo sent right after a
// submit may run first and report NoHistory. Callers that need ordering
// must wait for each command's event before sending the next, or use Handle.
func (e *Engine) Serve(ctx context.Context, cmds <-chan Command) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-cmds:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				e.Handle(ctx, cmd)
			}()
		}
	}
}

func (e *Engine) event(kind CommandKind, profileID string, res Result) Event {
	return Event{
		Command:   kind,
		ProfileID: profileID,
		Result:    res,
		Degraded:  e.queue.Degraded(),
		At:        e.cfg.Clock(),
	}
}

func (e *Engine) publish(kind CommandKind, profileID string, res Result) {
	e.emit(e.event(kind, profileID, res))
}

func (e *Engine) emit(ev Event) {
	e.evMu.Lock()
	defer e.evMu.Unlock()
	if e.closed {
		return
	}
	select {
	case e.events <- ev:
	default:
		e.log.Warn("event buffer full, dropping event", "command", ev.Command)
	}
}
