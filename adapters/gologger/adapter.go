package gologger

import (
	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

// Stack is a resolved logging pair plus its go-job equivalents, so the
// service, the queue, and the sweep worker log through one pipeline.
type Stack struct {
	Provider glog.LoggerProvider
	Logger   glog.Logger

	JobProvider job.LoggerProvider
	JobLogger   job.Logger
}

// NewStack resolves with precedence provider over logger over nop, then
// builds the go-job bridges from the resolved pair.
func NewStack(name string, provider glog.LoggerProvider, logger glog.Logger) Stack {
	resolvedProvider, resolvedLogger := glog.Resolve(name, provider, logger)
	stack := Stack{Provider: resolvedProvider, Logger: resolvedLogger}
	if resolvedProvider != nil {
		stack.JobProvider = job.GoLoggerProvider(resolvedProvider)
	}
	if resolvedLogger != nil {
		stack.JobLogger = job.GoLogger(resolvedLogger)
	}
	return stack
}

// Named returns a component logger from the provider, falling back to the
// stack logger when the provider yields nothing.
func (s Stack) Named(component string) glog.Logger {
	if s.Provider != nil {
		if logger := s.Provider.GetLogger(component); logger != nil {
			return logger
		}
	}
	if s.Logger != nil {
		return s.Logger
	}
	return glog.Nop()
}
