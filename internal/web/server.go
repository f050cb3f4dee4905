// Package web serves the small authenticated UI: scheduler status and
// song catalog management. Delivery itself has no user-facing surface;
// failures only show up in the logs.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/earworm-scheduler/internal/auth"
	"github.com/example/earworm-scheduler/internal/catalog"
	"github.com/example/earworm-scheduler/internal/earworm"
	"github.com/example/earworm-scheduler/internal/scheduler"
)

//go:embed templates/*.html static/*
var fs embed.FS

type Server struct {
	Auth    *auth.Store
	Catalog *catalog.Repo
	Sched   *scheduler.Scheduler
	Log     *zap.SugaredLogger
}

type statusView struct {
	NextRunAt   string
	LastRunAt   string
	LastOutcome string
	Draws       int
	Rebuilds    int
	SongCount   int
}

type tmplData struct {
	Title string
	User  int64
	Flash string

	Status statusView
	Songs  []catalog.Entry
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/static/", http.FileServer(http.FS(fs)))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)

	mux.Handle("/", s.Auth.RequireAuth(http.HandlerFunc(s.handleStatus)))
	mux.Handle("/songs", s.Auth.RequireAuth(http.HandlerFunc(s.handleSongs)))
	mux.Handle("/songs/add", s.Auth.RequireAuth(http.HandlerFunc(s.handleSongAdd)))
	mux.Handle("/songs/remove", s.Auth.RequireAuth(http.HandlerFunc(s.handleSongRemove)))

	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	count, err := s.Catalog.Count(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	snap := s.Sched.Status()
	s.render(w, "templates/status.html", tmplData{
		Title: "Status",
		User:  uid,
		Status: statusView{
			NextRunAt:   fmtTime(snap.NextRunAt),
			LastRunAt:   fmtTime(snap.LastRunAt),
			LastOutcome: fmtOutcome(snap.LastOutcome),
			Draws:       snap.Draws,
			Rebuilds:    snap.Rebuilds,
			SongCount:   count,
		},
	})
}

func (s *Server) handleSongs(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	songs, err := s.Catalog.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, "templates/songs.html", tmplData{
		Title: "Songs",
		User:  uid,
		Songs: songs,
	})
}

func (s *Server) handleSongAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	artist := strings.TrimSpace(r.FormValue("artist"))
	title := strings.TrimSpace(r.FormValue("title"))
	snippet := strings.TrimSpace(r.FormValue("snippet"))
	if artist == "" || title == "" || snippet == "" {
		s.renderSongsFlash(w, r, "Artist, title, and snippet are all required")
		return
	}

	if _, err := s.Catalog.Add(r.Context(), artist, title, snippet); err != nil {
		s.log().Errorw("song add failed", "artist", artist, "title", title, "error", err)
		s.renderSongsFlash(w, r, "Failed to add song (duplicate?)")
		return
	}
	http.Redirect(w, r, "/songs", http.StatusFound)
}

func (s *Server) handleSongRemove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	if err := s.Catalog.Remove(r.Context(), id); err != nil {
		s.log().Errorw("song remove failed", "id", id, "error", err)
	}
	http.Redirect(w, r, "/songs", http.StatusFound)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, "templates/login.html", tmplData{Title: "Login"})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		username := strings.TrimSpace(r.FormValue("username"))
		password := r.FormValue("password")
		id, err := s.Auth.Authenticate(r.Context(), username, password)
		if err != nil {
			s.render(w, "templates/login.html", tmplData{Title: "Login", Flash: "Invalid username/password"})
			return
		}
		if err := s.Auth.SetSession(w, r, id); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Auth.ClearSession(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) renderSongsFlash(w http.ResponseWriter, r *http.Request, flash string) {
	uid, _ := auth.UserIDFromContext(r.Context())
	songs, _ := s.Catalog.List(r.Context())
	s.render(w, "templates/songs.html", tmplData{
		Title: "Songs",
		User:  uid,
		Flash: flash,
		Songs: songs,
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data tmplData) {
	t, err := template.ParseFS(fs,
		"templates/base.html",
		name,
	)
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) log() *zap.SugaredLogger {
	if s.Log != nil {
		return s.Log
	}
	return zap.NewNop().Sugar()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("2006-01-02 15:04:05 MST")
}

func fmtOutcome(o *earworm.RunOutcome) string {
	if o == nil {
		return "no runs yet"
	}
	switch o.Kind {
	case earworm.OutcomeSkipped:
		return "skipped: " + o.Reason
	case earworm.OutcomeSent:
		return "sent: " + o.Status
	case earworm.OutcomeFailed:
		return "failed: " + o.Err.Error()
	}
	return o.Kind.String()
}

func Start(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return srv.ListenAndServe()
}
