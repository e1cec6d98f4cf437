// Package web serves the browser shell that mirrors the dashboard document.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/newthinker/stockboard/internal/api/handler/ui"
	"github.com/newthinker/stockboard/internal/view"
)

//go:embed templates/* static/*
var assetFS embed.FS

// SnapshotFunc returns the current dashboard.
type SnapshotFunc func() ui.DocumentView

// Handler renders the shell with the current document inlined, so the page
// is complete before the websocket connects.
type Handler struct {
	tmpl     *template.Template
	static   http.Handler
	snapshot SnapshotFunc
}

var funcs = template.FuncMap{
	"region": func(d ui.DocumentView, id string) view.RegionSnapshot {
		return d.Regions[id]
	},
	"field": func(d ui.DocumentView, name string) string {
		return d.Fields[name]
	},
}

// NewHandler creates a web handler. Templates and static files are loaded from
// dir when it is set, otherwise from the embedded copies.
func NewHandler(dir string, snapshot SnapshotFunc) (*Handler, error) {
	var (
		tmplFS   fs.FS
		staticFS fs.FS
		err      error
	)
	if dir != "" {
		root := os.DirFS(dir)
		tmplFS, staticFS = root, root
		if _, err := fs.Stat(root, "index.html"); err != nil {
			return nil, fmt.Errorf("templates dir %s: %w", filepath.Clean(dir), err)
		}
	} else {
		if tmplFS, err = fs.Sub(assetFS, "templates"); err != nil {
			return nil, err
		}
		if staticFS, err = fs.Sub(assetFS, "static"); err != nil {
			return nil, err
		}
	}

	tmpl, err := template.New("index.html").Funcs(funcs).ParseFS(tmplFS, "index.html")
	if err != nil {
		return nil, fmt.Errorf("parsing shell template: %w", err)
	}

	return &Handler{
		tmpl:     tmpl,
		static:   http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))),
		snapshot: snapshot,
	}, nil
}

// Index handles GET /.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, h.snapshot()); err != nil {
		http.Error(w, fmt.Sprintf("rendering shell: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// Static handles GET /static/*.
func (h *Handler) Static(w http.ResponseWriter, r *http.Request) {
	h.static.ServeHTTP(w, r)
}
