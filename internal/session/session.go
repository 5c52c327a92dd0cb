// Package session binds a store to the relay in one of two roles. The
// presenter owns the state and executes remote commands; a replica mirrors
// whatever the presenter publishes.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Vasu1712/worship-sync/internal/models"
	"github.com/Vasu1712/worship-sync/internal/protocol"
	"github.com/Vasu1712/worship-sync/internal/store"
)

var ErrUnknownCommand = errors.New("unknown remote command")

// Presenter runs remote commands against the authoritative store. Commands
// are queued and executed on the presenter's own goroutine so callers on the
// relay path never wait on the store lock.
type Presenter struct {
	store    *store.Store
	commands chan string
}

// NewPresenter creates a presenter with room for buffer pending commands.
func NewPresenter(s *store.Store, buffer int) *Presenter {
	if buffer <= 0 {
		buffer = 32
	}
	return &Presenter{store: s, commands: make(chan string, buffer)}
}

// Run executes queued commands until ctx is done.
func (p *Presenter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-p.commands:
			if err := p.Execute(cmd); err != nil {
				log.Printf("[Session] %v", err)
			}
		}
	}
}

// Dispatch queues a command without blocking. It returns false when the
// queue is full and the command was dropped.
func (p *Presenter) Dispatch(command string) bool {
	select {
	case p.commands <- command:
		return true
	default:
		log.Printf("[Session] Command queue full, dropping %q", command)
		return false
	}
}

// Execute runs one command synchronously.
func (p *Presenter) Execute(command string) error {
	switch command {
	case protocol.CommandNext:
		p.store.GoToNextSlide()
	case protocol.CommandPrev:
		p.store.PreviousSlide()
	case protocol.CommandBlank:
		p.store.ToggleBlank()
	case protocol.CommandLogo:
		p.store.ToggleLogo()
	case protocol.CommandTimer:
		p.store.ToggleTimer()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
	log.Printf("[Session] Executed remote command %q", command)
	return nil
}

// HandleRemoteCommand lets a presenter sit behind a relay client.
func (p *Presenter) HandleRemoteCommand(command string) { p.Dispatch(command) }

// HandleDelta ignores state from other members; the presenter is the only
// writer.
func (p *Presenter) HandleDelta(models.Delta) {}

// Replica mirrors a remote presenter into a local store.
type Replica struct {
	store *store.Store
}

func NewReplica(s *store.Store) *Replica {
	return &Replica{store: s}
}

func (r *Replica) HandleDelta(d models.Delta) { r.store.ApplyDelta(d) }

// HandleRemoteCommand is a no-op; commands are meant for the presenter.
func (r *Replica) HandleRemoteCommand(string) {}
