package check

import (
	"proteinrank-go-worker/services/rabbitmq"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func init() {
	apiErrWait = 10 * time.Millisecond
}

func TestInspect_QueueDisabled(t *testing.T) {
	resp := inspect(nil)
	assert.True(t, resp.Success)
	assert.Equal(t, "queue consumer disabled", resp.Messsage)
	assert.Greater(t, resp.Info.RoutineNum, 0)
}

func TestInspect_ReportsLostConnectionAndMissingConsumers(t *testing.T) {
	conn := rabbitmq.NewConnection("check-test", "not-a-url", []string{"scan"})

	resp := inspect(conn)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Messsage, "reconnect rabbit fail")
	assert.Contains(t, resp.Messsage, "channel get fail")
	assert.Contains(t, resp.Messsage, "consumers running 0/1")
	assert.Equal(t, 0, resp.Info.Consumers)
	assert.Empty(t, resp.Info.Queues)
}
