package gocommand

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"

	payflowcommand "github.com/StavoMidnite661/FinSec-Chrome-Extension/command"
	"github.com/StavoMidnite661/FinSec-Chrome-Extension/query"
)

// PaymentHandlers is the handler set a bus mounts. Nil entries are skipped,
// so a query-only host can mount a partial surface.
type PaymentHandlers struct {
	Login   *payflowcommand.InitiateLoginCommand
	Logout  *payflowcommand.InitiateLogoutCommand
	Payment *payflowcommand.InitiatePaymentCommand
	Resolve *payflowcommand.ResolveStatusCommand
	Sweep   *payflowcommand.SweepOrphansCommand

	ChannelState     *query.GetChannelStateQuery
	PendingSca       *query.ListPendingScaQuery
	TransactionState *query.GetTransactionStateQuery
}

// Bus binds the payment handlers to the go-command registry and dispatcher,
// so hosts trigger operations by message instead of by direct call.
type Bus struct {
	registry *command.Registry

	mu   sync.Mutex
	subs []commanddispatcher.Subscription
}

func NewBus() *Bus {
	return &Bus{registry: command.NewRegistry()}
}

func (b *Bus) Registry() *command.Registry {
	if b == nil {
		return nil
	}
	return b.registry
}

// Mount registers and subscribes every non-nil handler in one pass. When any
// registration fails, the subscriptions made during this call are torn down
// and the bus is left as it was before.
func (b *Bus) Mount(handlers PaymentHandlers, opts ...runner.Option) error {
	if b == nil || b.registry == nil {
		return fmt.Errorf("gocommand: bus is not initialized")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	before := len(b.subs)
	err := func() error {
		if handlers.Login != nil {
			if err := mountCommand(b, handlers.Login, opts...); err != nil {
				return err
			}
		}
		if handlers.Logout != nil {
			if err := mountCommand(b, handlers.Logout, opts...); err != nil {
				return err
			}
		}
		if handlers.Payment != nil {
			if err := mountCommand(b, handlers.Payment, opts...); err != nil {
				return err
			}
		}
		if handlers.Resolve != nil {
			if err := mountCommand(b, handlers.Resolve, opts...); err != nil {
				return err
			}
		}
		if handlers.Sweep != nil {
			if err := mountCommand(b, handlers.Sweep, opts...); err != nil {
				return err
			}
		}
		if handlers.ChannelState != nil {
			if err := mountQuery(b, handlers.ChannelState, opts...); err != nil {
				return err
			}
		}
		if handlers.PendingSca != nil {
			if err := mountQuery(b, handlers.PendingSca, opts...); err != nil {
				return err
			}
		}
		if handlers.TransactionState != nil {
			if err := mountQuery(b, handlers.TransactionState, opts...); err != nil {
				return err
			}
		}
		return nil
	}()
	if err != nil {
		for _, sub := range b.subs[before:] {
			if sub != nil {
				sub.Unsubscribe()
			}
		}
		b.subs = b.subs[:before]
		return err
	}
	return nil
}

// RouteQueue mirrors the mounted handlers into a go-job queue registry, so
// queue-routed messages resolve to the same handlers the dispatcher uses.
// Initialize runs the resolver, call RouteQueue before it.
func (b *Bus) RouteQueue(key string, queueRegistry *jobqueuecommand.Registry) error {
	if b == nil || b.registry == nil {
		return fmt.Errorf("gocommand: bus is not initialized")
	}
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return b.registry.AddResolver(strings.TrimSpace(key), jobqueuecommand.QueueResolver(queueRegistry))
}

// Initialize runs the registry resolvers. Call once after mounting.
func (b *Bus) Initialize() error {
	if b == nil || b.registry == nil {
		return fmt.Errorf("gocommand: bus is not initialized")
	}
	return b.registry.Initialize()
}

// Unmount drops every live subscription. Mount can be called again
// afterwards with a fresh handler set.
func (b *Bus) Unmount() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if sub != nil {
			sub.Unsubscribe()
		}
	}
	b.subs = nil
}

// mountCommand is called with b.mu held.
func mountCommand[T any](b *Bus, cmd command.Commander[T], opts ...runner.Option) error {
	sub := commanddispatcher.SubscribeCommand(cmd, opts...)
	if err := b.registry.RegisterCommand(cmd); err != nil {
		if sub != nil {
			sub.Unsubscribe()
		}
		return err
	}
	b.subs = append(b.subs, sub)
	return nil
}

// mountQuery is called with b.mu held.
func mountQuery[T any, R any](b *Bus, qry command.Querier[T, R], opts ...runner.Option) error {
	sub := commanddispatcher.SubscribeQuery(qry, opts...)
	if err := b.registry.RegisterCommand(qry); err != nil {
		if sub != nil {
			sub.Unsubscribe()
		}
		return err
	}
	b.subs = append(b.subs, sub)
	return nil
}

// Dispatch sends a command message through the shared dispatcher.
func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

// Query sends a query message through the shared dispatcher and returns its
// result.
func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}
