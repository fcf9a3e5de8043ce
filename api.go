package renewip

import (
	"context"
)

// Oracle reports the current public address as seen by some outside party.
type Oracle interface {
	Observe(context.Context) Observation
}

// Trigger asks the remote side to reassign the public address.
// A nil error only means the request was accepted, not that the address has changed.
type Trigger interface {
	Renew(ctx context.Context, cfg Configuration) error
}

// History records accepted addresses.
type History interface {
	Append(Address) error
}

// Publisher pushes a newly accepted address somewhere else, e.g. a DNS record.
type Publisher interface {
	Publish(ctx context.Context, addr Address) error
}

// ConfigLoader produces the Configuration for a run.
type ConfigLoader interface {
	LoadConfiguration() (Configuration, error)
}

// OracleFunc adapts an ordinary function to the Oracle interface.
type OracleFunc func(context.Context) Observation

func (f OracleFunc) Observe(ctx context.Context) Observation { return f(ctx) }

// TriggerFunc adapts an ordinary function to the Trigger interface.
type TriggerFunc func(context.Context, Configuration) error

func (f TriggerFunc) Renew(ctx context.Context, cfg Configuration) error { return f(ctx, cfg) }
