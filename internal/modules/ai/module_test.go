package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/troom/internal/assistant"
	"github.com/nfrund/troom/internal/config"
	"github.com/nfrund/troom/internal/handlers"
	"github.com/nfrund/troom/internal/modules/chat"
	"github.com/nfrund/troom/internal/pubsub"
)

func boot(t *testing.T, environ map[string]string) (*echo.Echo, do.Injector, *AIModule) {
	t.Helper()
	cfg, err := config.Load(environ)
	require.NoError(t, err)
	bus := pubsub.NewWatermillBridge()
	t.Cleanup(func() { _ = bus.Close() })

	i := do.New()
	do.ProvideValue(i, cfg)
	do.ProvideValue[pubsub.Publisher](i, bus)
	do.ProvideValue[pubsub.Subscriber](i, bus)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	e := echo.New()
	e.Validator = handlers.NewValidator()
	chatModule := chat.New()
	m := New()
	require.NoError(t, chatModule.Register(i))
	require.NoError(t, m.Register(i))
	require.NoError(t, chatModule.Boot(ctx, e.Group(""), i))
	require.NoError(t, m.Boot(ctx, e.Group(""), i))
	return e, i, m
}

func TestAIModule_DisabledWithoutKey(t *testing.T) {
	e, i, m := boot(t, map[string]string{})

	_, err := do.Invoke[assistant.Generator](i)
	assert.Error(t, err)
	assert.Nil(t, m.responder)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/text", strings.NewReader(`{"prompt":"hi"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	assert.NoError(t, m.Shutdown(context.Background()))
}

func TestAIModule_EnabledWithKey(t *testing.T) {
	_, i, m := boot(t, map[string]string{"TOGETHER_API_KEY": "test-key"})

	gen, err := do.Invoke[assistant.Generator](i)
	require.NoError(t, err)
	assert.IsType(t, &assistant.OpenAIClient{}, gen)
	assert.NotNil(t, m.responder)
	assert.NoError(t, m.Shutdown(context.Background()))
}

func TestAIModule_RateLimitsGeneration(t *testing.T) {
	e, _, _ := boot(t, map[string]string{"AI_RATE_LIMIT": "2"})

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/ai/text", strings.NewReader(`{"prompt":"hi"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.RemoteAddr = "198.51.100.7:5555"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusTooManyRequests}, codes)
}
