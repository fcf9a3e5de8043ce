package renewip_test

import (
	"context"
	"errors"
	"sync"

	"github.com/Travis-Britz/renewip"
)

// unreachable is a marker for sequenceOracle.
const unreachable = renewip.Address("\x00unreachable")

// sequenceOracle answers with the given addresses in order and then keeps repeating the last one.
type sequenceOracle struct {
	mu    sync.Mutex
	seq   []renewip.Address
	calls int
}

func newSequenceOracle(seq ...renewip.Address) *sequenceOracle {
	return &sequenceOracle{seq: seq}
}

func (o *sequenceOracle) Observe(context.Context) renewip.Observation {
	o.mu.Lock()
	defer o.mu.Unlock()
	i := o.calls
	if i >= len(o.seq) {
		i = len(o.seq) - 1
	}
	o.calls++
	if o.seq[i] == unreachable {
		return renewip.Unreachable(errors.New("connection refused"))
	}
	return renewip.Observed(o.seq[i])
}

func (o *sequenceOracle) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

func repeat(addr renewip.Address, n int) []renewip.Address {
	s := make([]renewip.Address, n)
	for i := range s {
		s[i] = addr
	}
	return s
}
