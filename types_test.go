package renewip_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Travis-Britz/renewip"
)

func TestUnreachableCauseMatchesSentinel(t *testing.T) {
	refused := errors.New("connection refused")
	tests := map[string]error{
		"nil cause":     nil,
		"plain cause":   refused,
		"wrapped cause": renewip.ErrUnreachable,
	}
	for name, cause := range tests {
		obs := renewip.Unreachable(cause)
		assert.False(t, obs.Reachable(), name)
		assert.ErrorIs(t, obs.Cause, renewip.ErrUnreachable, name)
	}

	obs := renewip.Unreachable(refused)
	assert.ErrorIs(t, obs.Cause, refused, "the original cause stays in the chain")
	assert.Equal(t, "ip oracle unreachable: connection refused", obs.Cause.Error())
	assert.Equal(t, renewip.ErrUnreachable, renewip.Unreachable(renewip.ErrUnreachable).Cause, "already matching causes are not wrapped twice")
}

func TestObservationString(t *testing.T) {
	assert.Equal(t, "1.2.3.4", renewip.Observed("1.2.3.4").String())
	assert.Equal(t, "unreachable", renewip.Unreachable(nil).String())
}
