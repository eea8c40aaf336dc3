package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	MustRegister()
	MustRegister()

	before := testutil.ToFloat64(fragmentMutations.WithLabelValues("status", "write"))
	FragmentMutation(" Status", "WRITE ")
	assert.Equal(t, before+1, testutil.ToFloat64(fragmentMutations.WithLabelValues("status", "write")))

	before = testutil.ToFloat64(commands.WithLabelValues("loc"))
	Command("loc")
	assert.Equal(t, before+1, testutil.ToFloat64(commands.WithLabelValues("loc")))

	before = testutil.ToFloat64(handlerErrors)
	HandlerError()
	assert.Equal(t, before+1, testutil.ToFloat64(handlerErrors))
}
