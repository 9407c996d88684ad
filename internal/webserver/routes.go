package webserver

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/levelup-project/levelup/internal/webapi"
	"github.com/levelup-project/levelup/web"
)

type pageData struct {
	Title    string
	Subtitle string
	Theme    string
	System   string
	History  []webapi.Turn
}

// registerRoutes sets up the API, metrics, static and page routes and returns
// the compressed root handler.
func registerRoutes(mux *http.ServeMux, cfg Config) (http.Handler, error) {
	webapi.RegisterRoutes(mux, cfg.API)
	if cfg.API.Metrics != nil {
		mux.Handle("GET /metrics", cfg.API.Metrics.Handler())
	}

	static, err := fs.Sub(web.Assets, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to create sub filesystem for web/static: %w", err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	page, err := pageHandler(cfg)
	if err != nil {
		return nil, err
	}
	mux.Handle("GET /{$}", page)

	return gzhttp.GzipHandler(mux), nil
}

// pageHandler renders the configured demo page. The chat page is rendered
// with the caller's current history.
func pageHandler(cfg Config) (http.Handler, error) {
	switch cfg.Page {
	case PageChat, PageVision, PageImagine:
	default:
		return nil, fmt.Errorf("unknown page %q", cfg.Page)
	}

	tmpl, err := template.ParseFS(web.Assets, "templates/layout.html", "templates/"+string(cfg.Page)+".html")
	if err != nil {
		return nil, fmt.Errorf("parsing %s page: %w", cfg.Page, err)
	}
	name := string(cfg.Page) + ".html"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := pageData{
			Title:    cfg.Title,
			Subtitle: cfg.Subtitle,
			Theme:    cfg.Theme,
			System:   cfg.System,
		}
		if cfg.Page == PageChat && cfg.API.Sessions != nil {
			sess, release := cfg.API.Sessions.Acquire(w, r)
			data.System = sess.System()
			data.History = webapi.Turns(sess.History())
			release()
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
			cfg.Logger.Error("rendering page", "page", cfg.Page, "error", err)
		}
	}), nil
}
