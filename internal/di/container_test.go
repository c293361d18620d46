package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	availabilityService "github.com/reshetovitsme/campus-bot/internal/modules/availability/service"
	menuService "github.com/reshetovitsme/campus-bot/internal/modules/menu/service"
	"github.com/reshetovitsme/campus-bot/internal/shared/config"
	"github.com/reshetovitsme/campus-bot/internal/shared/fetcher"
	httpServer "github.com/reshetovitsme/campus-bot/internal/transport/http"
	telegramHandler "github.com/reshetovitsme/campus-bot/internal/transport/telegram"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_ResolvesServices(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	injector, err := Setup()
	require.NoError(t, err)

	cfg, err := do.Invoke[*config.Config](injector)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultCanteenAPIURL, cfg.CanteenAPIURL)

	_, err = do.Invoke[*menuService.Lookup](injector)
	assert.NoError(t, err)
	_, err = do.Invoke[*telegramHandler.Handler](injector)
	assert.NoError(t, err)
	_, err = do.Invoke[*httpServer.Server](injector)
	assert.NoError(t, err)

	monitor, err := do.Invoke[*availabilityService.Monitor](injector)
	require.NoError(t, err)

	require.NoError(t, Shutdown(injector))
	assert.Empty(t, monitor.Pending(1))
}

func TestSetup_MissingToken(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	injector, err := Setup()
	require.NoError(t, err)

	_, err = do.Invoke[*config.Config](injector)
	assert.Error(t, err)
}

func TestSetup_AvailabilityCheckNotBlockedByLookups(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("MAX_CONCURRENT_REQUESTS", "1")

	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
		_, _ = w.Write([]byte(`[]`))
	}))
	defer slow.Close()
	defer close(release)

	opal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer opal.Close()

	injector, err := Setup()
	require.NoError(t, err)
	defer func() { _ = Shutdown(injector) }()

	lookups := do.MustInvoke[*fetcher.Fetcher](injector)
	checker := do.MustInvoke[*availabilityService.Checker](injector)

	go func() {
		var out []any
		_ = lookups.GetJSON(context.Background(), slow.URL, nil, &out)
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	online, err := checker.CheckOnce(ctx, opal.URL)
	require.NoError(t, err)
	assert.True(t, online)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
