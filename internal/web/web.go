package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"trainingcal/internal/config"
	"trainingcal/internal/events"
	appLog "trainingcal/internal/log"
	"trainingcal/internal/model"
	"trainingcal/internal/viewstate"
)

// Options wires a Server to its collaborators.
type Options struct {
	Config   *config.Config
	Location *time.Location
	Source   *events.Source
	// Mutator is optional; without it the mutation routes answer 503.
	Mutator events.Mutator
	// State, if set, remembers the last viewed range for the scheduler.
	State viewstate.Store
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Server provides the calendar HTTP API.
type Server struct {
	cfg     *config.Config
	loc     *time.Location
	source  *events.Source
	mutator events.Mutator
	state   viewstate.Store
	now     func() time.Time

	router  *mux.Router
	cache   *rangeCache
	limiter *ipRateLimiter
}

// NewServer constructs a new Server.
func NewServer(opts Options) *Server {
	s := &Server{
		cfg:     opts.Config,
		loc:     opts.Location,
		source:  opts.Source,
		mutator: opts.Mutator,
		state:   opts.State,
		now:     opts.Now,
		router:  mux.NewRouter(),
	}
	if s.cfg == nil {
		s.cfg = config.DefaultConfig()
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.source == nil {
		s.source = events.NewSource(nil, events.SourceOptions{DevMode: s.cfg.DevMode})
	}
	s.cache = newRangeCache(s.cfg.CacheTTL(), s.now)
	s.limiter = newIPRateLimiter(s.cfg.RateLimit.PerMinute, s.cfg.RateLimit.Burst)
	s.registerRoutes()
	return s
}

// Handler returns the full middleware chain around the router.
func (s *Server) Handler() http.Handler {
	h := s.rateLimit(s.router)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		h = s.basicAuthMiddleware(h)
	}
	return requestLog(h)
}

// Run serves on cfg.Listen until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen, "dev_mode", s.cfg.DevMode)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/calendar.ics", s.handleExport).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/calendar", s.handleCalendar).Methods(http.MethodGet)
	api.HandleFunc("/calendar/navigate", s.handleNavigate).Methods(http.MethodGet, http.MethodPost)
	api.HandleFunc("/events", s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}", s.handleUpdate).Methods(http.MethodPut)
	api.HandleFunc("/events/{id}", s.handleDelete).Methods(http.MethodDelete)
	api.HandleFunc("/events/{id}/complete", s.handleComplete).Methods(http.MethodPost)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password is treated as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="trainingcal", charset="UTF-8"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLog tags every request with an X-Request-ID and logs its outcome.
func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		appLog.Debug("http request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String(),
		)
	})
}

// controllerFor builds a per-request controller over the request's query.
// Navigation params other than view and date are stripped first.
func (s *Server) controllerFor(r *http.Request) (*viewstate.Controller, *viewstate.QueryStore) {
	q := r.URL.Query()
	q.Del("action")
	q.Del("value")
	store := viewstate.NewQueryStore(q)
	c := viewstate.New(store, viewstate.Options{
		Now:      s.now,
		Location: s.loc,
		Fetcher:  cachedSource{cache: s.cache, source: s.source},
	})
	return c, store
}

// respondCalendar fetches the controller's range and writes the calendar.
func (s *Server) respondCalendar(w http.ResponseWriter, r *http.Request, c *viewstate.Controller, store *viewstate.QueryStore, status int) {
	res, err := c.Refresh(r.Context())
	if err != nil {
		appLog.Error("calendar refresh failed", err, "view", c.View())
		writeError(w, http.StatusInternalServerError, "failed to load calendar")
		return
	}
	writeJSON(w, status, s.calendarBody(c, store, res))
}

func (s *Server) calendarBody(c *viewstate.Controller, store *viewstate.QueryStore, res events.Result) calendarResponse {
	s.remember(c.State())
	return buildCalendar(c.Range(), res, store.Encode(), s.now(), s.loc)
}

// remember persists the last viewed state when a state store is configured.
func (s *Server) remember(st model.NavigationState) {
	if s.state == nil {
		return
	}
	if err := s.state.Replace(st); err != nil {
		appLog.Error("persist navigation state failed", err, "view", st.View, "date", st.Date)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleCalendar returns the resolved range, display facts and laid-out days.
//
// GET /api/calendar?view=week&date=2025-01-14
//   - view: day|week|month|year (unknown or missing: week)
//   - date: YYYY-MM-DD anchor (unparseable or missing: today)
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	c, store := s.controllerFor(r)
	// Write the normalized state back so the returned query is canonical.
	if err := store.Replace(c.State()); err != nil {
		appLog.Error("query store write failed", err)
	}
	s.respondCalendar(w, r, c, store, http.StatusOK)
}

// handleNavigate applies one navigation action and returns the new calendar
// plus the query the client should replace its URL with.
//
// GET /api/calendar/navigate?view=week&date=2025-01-14&action=next
//   - action: next|prev|today|view|date|month (missing: no change)
//   - value:  argument for view, date and month
//
// Malformed input leaves the state as it was; the response carries a notice.
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c, store := s.controllerFor(r)

	var applyErr error
	if q.Get("action") != "" {
		applyErr = c.Apply(q.Get("action"), q.Get("value"))
	}
	if applyErr != nil && !isBadNavigation(applyErr) {
		appLog.Error("navigate failed", applyErr, "action", q.Get("action"))
		writeError(w, http.StatusInternalServerError, "failed to navigate")
		return
	}

	res, err := c.Refresh(r.Context())
	if err != nil {
		appLog.Error("calendar refresh failed", err, "view", c.View())
		writeError(w, http.StatusInternalServerError, "failed to load calendar")
		return
	}
	body := s.calendarBody(c, store, res)
	if applyErr != nil {
		// Malformed input keeps the current state and is reported, not failed.
		appLog.Debug("navigate input ignored", "action", q.Get("action"), "value", q.Get("value"), "err", applyErr)
		body.Notice = navigationNotice(applyErr)
	}
	writeJSON(w, http.StatusOK, body)
}

// isBadNavigation reports whether err comes from malformed navigation input
// rather than a failed store write.
func isBadNavigation(err error) bool {
	return errors.Is(err, viewstate.ErrInvalidAnchor) ||
		errors.Is(err, viewstate.ErrUnknownAction) ||
		errors.Is(err, viewstate.ErrInvalidMonth)
}

func navigationNotice(err error) string {
	switch {
	case errors.Is(err, viewstate.ErrInvalidAnchor):
		return "That date could not be read. Staying on the current date."
	case errors.Is(err, viewstate.ErrInvalidMonth):
		return "That month could not be read. Staying on the current view."
	default:
		return "Unknown navigation action. Staying on the current view."
	}
}

// handleExport serves the resolved range as an iCalendar feed.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	c, _ := s.controllerFor(r)
	res, err := c.Refresh(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load calendar")
		return
	}

	rng := c.Range()
	body := events.ExportICS("Training calendar", res.Events, s.loc, s.now())

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="trainingcal-`+rng.StartKey()+`.ics"`)
	if res.IsSeedData {
		w.Header().Set("X-Seed-Data", "true")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// Warm fetches the range of st into the cache. The scheduler calls it for
// the last viewed state.
func (s *Server) Warm(ctx context.Context, st model.NavigationState) error {
	values := url.Values{}
	values.Set("view", string(st.View))
	values.Set("date", st.Date)
	c := viewstate.New(viewstate.NewQueryStore(values), viewstate.Options{
		Now:      s.now,
		Location: s.loc,
		Fetcher:  cachedSource{cache: s.cache, source: s.source},
	})
	// Force a fresh fetch.
	rng := c.Range()
	s.cache.drop(rangeKey(rng.Start, rng.End))

	res, err := c.Refresh(ctx)
	if err != nil {
		return err
	}
	appLog.Info("cache warmed", "view", rng.View, "range", rng.StartKey()+".."+rng.EndKey(), "events", len(res.Events), "seed", res.IsSeedData)
	return res.FetchErr
}

// LastState returns the persisted navigation state, if any.
func (s *Server) LastState() (model.NavigationState, error) {
	if s.state == nil {
		return model.NavigationState{}, nil
	}
	return s.state.Load()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
