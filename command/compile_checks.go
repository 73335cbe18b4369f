package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[InitiateLoginMessage]   = (*InitiateLoginCommand)(nil)
	_ gocmd.Commander[InitiateLogoutMessage]  = (*InitiateLogoutCommand)(nil)
	_ gocmd.Commander[InitiatePaymentMessage] = (*InitiatePaymentCommand)(nil)
	_ gocmd.Commander[ResolveStatusMessage]   = (*ResolveStatusCommand)(nil)
	_ gocmd.Commander[SweepOrphansMessage]    = (*SweepOrphansCommand)(nil)
)
