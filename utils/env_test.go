package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvService_InitEnvFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	config := `
concurrentAmount: 8
router:
  port: 9090
server:
  app_api: http://app.local
lookup:
  base_url: http://off.local/
  timeout: 3s
  rate_limit: 2
  burst: 1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(config), 0644))

	envService := EnvService{ConfigPath: dir}
	envService.InitEnv()

	assert.Equal(t, 8, EnvConfig.ConcurrentAmount)
	assert.Equal(t, 9090, EnvConfig.Router.Port)
	assert.Equal(t, "http://app.local", EnvConfig.Server.AppAPI)
	assert.Equal(t, "http://off.local", EnvConfig.Lookup.BaseURL)
	assert.Equal(t, 3*time.Second, EnvConfig.Lookup.Timeout)
	assert.Equal(t, 2.0, EnvConfig.Lookup.RateLimit)
	assert.Equal(t, 1, EnvConfig.Lookup.Burst)
	// 沒設定的走預設值
	assert.Equal(t, uint32(5), EnvConfig.Lookup.BreakerFailures)
	assert.Equal(t, []string{"scan"}, EnvConfig.RabbitMQ.Queues)
}

func TestEnvService_InitEnvFallsBackToEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOOKUP_BASE_URL", "http://env.local")
	t.Setenv("ROUTER_PORT", "7070")

	envService := EnvService{ConfigPath: dir}
	envService.InitEnv()

	assert.Equal(t, "http://env.local", EnvConfig.Lookup.BaseURL)
	assert.Equal(t, 7070, EnvConfig.Router.Port)
	assert.Equal(t, 10*time.Second, EnvConfig.Lookup.Timeout)
}

func TestEnvService_InitEnvLoadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SERVER_APP_API=http://dotenv.local\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("SERVER_APP_API") })

	envService := EnvService{ConfigPath: dir}
	envService.InitEnv()

	assert.Equal(t, "http://dotenv.local", EnvConfig.Server.AppAPI)
}
