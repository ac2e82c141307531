// Package view renders the embedded HTML templates. Every page is parsed once
// together with layout.html and the partials; request-specific helpers are
// bound on a clone at render time.
package view

import (
	"bytes"
	"crypto/sha1"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/csrf"

	"github.com/techbench/gradebook/internal/auth"
	"github.com/techbench/gradebook/internal/i18n"
	"github.com/techbench/gradebook/internal/validation"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static serves the embedded assets under /static/.
func Static() http.Handler {
	sub, _ := fs.Sub(staticFS, "static")
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

const flashCookie = "flash"

var (
	langResolver    = func(*http.Request) string { return i18n.DefaultLang }
	isAdminResolver = func(*http.Request) bool { return false }
	canResolver     = func(*http.Request, string, string) bool { return false }

	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}

	assetVersions sync.Map
)

func SetLangResolver(f func(*http.Request) string) {
	if f != nil {
		langResolver = f
	}
}

// SetIsAdminResolver sets the callback behind the isAdmin template helper.
func SetIsAdminResolver(f func(*http.Request) bool) {
	if f != nil {
		isAdminResolver = f
	}
}

// SetCanResolver sets the callback behind the can template helper.
func SetCanResolver(f func(r *http.Request, resource, action string) bool) {
	if f != nil {
		canResolver = f
	}
}

// Funcs returns the helpers available to every template for request r.
func Funcs(r *http.Request) template.FuncMap {
	lang := "en"
	if r != nil {
		lang = langResolver(r)
	}
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"lang": func() string { return lang },
		"can": func(resource, action string) bool {
			return r != nil && canResolver(r, resource, action)
		},
		"isAdmin": func() bool { return r != nil && isAdminResolver(r) },
		"csrfField": func() template.HTML {
			if r == nil {
				return ""
			}
			return csrf.TemplateField(r)
		},
		"year":  func() int { return time.Now().Year() },
		"asset": assetPath,
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("2006-01-02")
		},
		"datetime": func(t time.Time) string { return t.Local().Format("2006-01-02 15:04") },
		"deref": func(p *int) string {
			if p == nil {
				return ""
			}
			return fmt.Sprint(*p)
		},
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				if key, ok := values[i].(string); ok {
					m[key] = values[i+1]
				}
			}
			return m
		},
	}
}

func assetPath(rel string) string {
	if v, ok := assetVersions.Load(rel); ok {
		return v.(string)
	}
	p := "/static/" + rel
	if b, err := staticFS.ReadFile("static/" + rel); err == nil {
		h := sha1.Sum(b)
		p += fmt.Sprintf("?v=%x", h[:6])
	}
	assetVersions.Store(rel, p)
	return p
}

func parse(name string) (*template.Template, error) {
	tplCache.RLock()
	t, ok := tplCache.m[name]
	tplCache.RUnlock()
	if ok {
		return t, nil
	}
	t, err := template.New("layout.html").Funcs(Funcs(nil)).ParseFS(templateFS,
		"templates/layout.html",
		"templates/partials/*.html",
		"templates/"+name,
	)
	if err != nil {
		return nil, err
	}
	tplCache.Lock()
	tplCache.m[name] = t
	tplCache.Unlock()
	return t, nil
}

// Render writes the page with status 200.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	return RenderStatus(w, r, http.StatusOK, name, data)
}

// RenderStatus executes the page into a buffer first so that a template
// error never leaves a half-written response behind.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	base, err := parse(name)
	if err != nil {
		return err
	}
	t, err := base.Clone()
	if err != nil {
		return err
	}
	t.Funcs(Funcs(r))

	if data == nil {
		data = map[string]any{}
	}
	setDefault(data, "Errors", validation.Violations{})
	setDefault(data, "Form", map[string]string{})
	if _, ok := data["Session"]; !ok {
		s, _ := auth.SessionFromContext(r.Context())
		data["Session"] = s
	}
	s, ok := data["Session"].(*auth.Session)
	setDefault(data, "IsLoggedIn", ok && s != nil)
	if c, err := r.Cookie(flashCookie); err == nil && c.Value != "" {
		if msg, err := url.QueryUnescape(c.Value); err == nil {
			setDefault(data, "Flash", msg)
		}
		http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

func setDefault(data map[string]any, key string, value any) {
	if _, ok := data[key]; !ok {
		data[key] = value
	}
}

// Flash stores a translated one-shot message shown by the next rendered page.
func Flash(w http.ResponseWriter, r *http.Request, code string) {
	msg := i18n.T(langResolver(r), code)
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pages lists the page templates, for tests and start-up checks.
func Pages() []string {
	entries, _ := fs.ReadDir(templateFS, "templates")
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".html") && e.Name() != "layout.html" {
			out = append(out, e.Name())
		}
	}
	return out
}

// Preload parses every page so that template errors surface at start-up.
func Preload() error {
	for _, name := range Pages() {
		if _, err := parse(name); err != nil {
			return fmt.Errorf("template %s: %w", name, err)
		}
	}
	return nil
}
