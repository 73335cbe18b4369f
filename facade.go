package finsec

import (
	"fmt"

	"github.com/StavoMidnite661/FinSec-Chrome-Extension/adapters/gocommand"
	payflowcommand "github.com/StavoMidnite661/FinSec-Chrome-Extension/command"
	"github.com/StavoMidnite661/FinSec-Chrome-Extension/query"
)

// CommandQueryService is the surface the facade builds its handlers over.
// *core.Service satisfies it.
type CommandQueryService interface {
	payflowcommand.MutatingService
	query.ChannelStateReader
	query.ScaReader
	query.TransactionStateReader
}

type Commands struct {
	InitiateLogin   *payflowcommand.InitiateLoginCommand
	InitiateLogout  *payflowcommand.InitiateLogoutCommand
	InitiatePayment *payflowcommand.InitiatePaymentCommand
	ResolveStatus   *payflowcommand.ResolveStatusCommand
	SweepOrphans    *payflowcommand.SweepOrphansCommand
}

type Queries struct {
	GetChannelState     *query.GetChannelStateQuery
	ListPendingSca      *query.ListPendingScaQuery
	GetTransactionState *query.GetTransactionStateQuery
}

// Facade bundles the full command/query handler set for one service instance
// so hosts register them against a dispatcher in a single pass.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("finsec: command/query service is required")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		InitiateLogin:   payflowcommand.NewInitiateLoginCommand(service),
		InitiateLogout:  payflowcommand.NewInitiateLogoutCommand(service),
		InitiatePayment: payflowcommand.NewInitiatePaymentCommand(service),
		ResolveStatus:   payflowcommand.NewResolveStatusCommand(service),
		SweepOrphans:    payflowcommand.NewSweepOrphansCommand(service),
	}
	facade.queries = Queries{
		GetChannelState:     query.NewGetChannelStateQuery(service),
		ListPendingSca:      query.NewListPendingScaQuery(service),
		GetTransactionState: query.NewGetTransactionStateQuery(service),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

// Mount registers the full handler set on a dispatcher bus, so hosts reach
// the service through messages.
func (f *Facade) Mount(bus *gocommand.Bus) error {
	if f == nil {
		return fmt.Errorf("finsec: facade is required")
	}
	return bus.Mount(gocommand.PaymentHandlers{
		Login:            f.commands.InitiateLogin,
		Logout:           f.commands.InitiateLogout,
		Payment:          f.commands.InitiatePayment,
		Resolve:          f.commands.ResolveStatus,
		Sweep:            f.commands.SweepOrphans,
		ChannelState:     f.queries.GetChannelState,
		PendingSca:       f.queries.ListPendingSca,
		TransactionState: f.queries.GetTransactionState,
	})
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
