package webserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/levelup-project/levelup/internal/chat"
	"github.com/levelup-project/levelup/internal/metrics"
	"github.com/levelup-project/levelup/internal/models"
	"github.com/levelup-project/levelup/internal/webapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type echoCompleter struct{}

func (echoCompleter) Complete(_ context.Context, msgs []models.Message) (string, error) {
	return "echo: " + msgs[len(msgs)-1].PlainText(), nil
}

func chatConfig(theme string) Config {
	return Config{
		NoBrowser: true,
		Page:      PageChat,
		Title:     "Project LevelUP – Generative AI Chat",
		Theme:     theme,
		API: webapi.Deps{
			Sessions: webapi.NewSessionStore(time.Hour, func() *chat.Session {
				return chat.NewSession(echoCompleter{}, chat.Options{System: "Be brief.", SyncSystem: theme == "card"})
			}),
			Metrics: metrics.New(),
		},
	}
}

func newTestServer(t *testing.T, cfg Config) http.Handler {
	t.Helper()
	srv, err := New(cfg)
	require.NoError(t, err)
	return srv.Handler()
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer(t, chatConfig(""))

	rec := get(handler, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body webapi.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, []string{"chat"}, body.Demos)
}

func TestChatPage(t *testing.T) {
	handler := newTestServer(t, chatConfig(""))

	rec := get(handler, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, "Project LevelUP")
	assert.Contains(t, body, "Be brief.")
	assert.NotContains(t, body, "card.css")
}

func TestChatPage_ShowsHistory(t *testing.T) {
	handler := newTestServer(t, chatConfig("card"))

	req := httptest.NewRequest(http.MethodPost, "/api/chat/send", strings.NewReader(`{"message":"hello <b>","system":"Be brief."}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	page := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		page.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, page)

	body := rec.Body.String()
	assert.Contains(t, body, "card.css")
	assert.Contains(t, body, "hello &lt;b&gt;")
	assert.Contains(t, body, "echo: hello")
}

func TestVisionAndImaginePages(t *testing.T) {
	for _, p := range []Page{PageVision, PageImagine} {
		t.Run(string(p), func(t *testing.T) {
			handler := newTestServer(t, Config{NoBrowser: true, Page: p, Title: "demo"})
			rec := get(handler, "/")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), `data-demo="`+string(p)+`"`)
		})
	}
}

func TestUnknownPage(t *testing.T) {
	_, err := New(Config{Page: "dashboard"})
	assert.Error(t, err)
}

func TestStaticAssets(t *testing.T) {
	handler := newTestServer(t, chatConfig(""))

	for _, p := range []string{"/static/style.css", "/static/card.css", "/static/app.js"} {
		rec := get(handler, p)
		assert.Equal(t, http.StatusOK, rec.Code, p)
	}
	assert.Equal(t, http.StatusNotFound, get(handler, "/nope").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	handler := newTestServer(t, chatConfig(""))

	rec := get(handler, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "levelup_")
}

func TestResponsesAreCompressed(t *testing.T) {
	handler := newTestServer(t, chatConfig(""))

	req := httptest.NewRequest(http.MethodGet, "/static/app.js", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	srv, err := New(chatConfig(""))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(ctx, ln) })

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/api/health")
		if err != nil {
			return false
		}
		resp.Body.Close() //nolint:errcheck
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, g.Wait())
}
