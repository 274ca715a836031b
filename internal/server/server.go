// Package server synthesizes the HTTP surface from the frozen registry:
// catalog and introspection endpoints, the per-tool invocation endpoint,
// and the structured invocation protocol under /mcp.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/humcp/humcp/internal/registry"
	"github.com/humcp/humcp/internal/schema"
	"github.com/humcp/humcp/internal/skills"
	"github.com/humcp/humcp/internal/validate"
)

const serverVersion = "1.0.0"

// Server wires the frozen registry and the skills store into an HTTP
// handler. The registry is immutable; the only shared mutable state is the
// per-descriptor compiled-validator cache, which is populated idempotently
// on first use.
type Server struct {
	port   int
	token  string
	reg    *registry.Registry
	skills *skills.Store
	router *chi.Mux

	compiled sync.Map // tool name -> *compiledValidator
}

// compiledValidator memoizes one descriptor's validator. The first caller
// compiles; concurrent first callers wait on the Once and observe the same
// result.
type compiledValidator struct {
	once sync.Once
	v    *validate.Validator
	err  error
}

// New constructs a Server over the frozen registry.
// token, when non-empty, is required as a bearer token on the /mcp surface.
func New(port int, token string, reg *registry.Registry, sk *skills.Store) *Server {
	s := &Server{
		port:   port,
		token:  token,
		reg:    reg,
		skills: sk,
		router: chi.NewRouter(),
	}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/", s.handleRoot)

	s.router.Route("/tools", func(r chi.Router) {
		r.Get("/", s.handleListTools)
		r.Get("/{category}", s.handleCategory)
		r.Get("/{category}/{name}", s.handleToolInfo)
		r.Post("/{name}", s.handleInvoke)
	})

	s.router.Route("/mcp", func(r chi.Router) {
		r.Use(s.auth)
		r.Get("/tools", s.handleMCPTools)
		r.Post("/call", s.handleMCPCall)
		r.Get("/ws", s.handleWS)
	})

	return s
}

// Router exposes the root HTTP handler for the server.
func (s *Server) Router() http.Handler { return s.router }

// auth enforces the optional pass-through bearer token.
func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.token {
			writeJSON(w, http.StatusUnauthorized, schema.Fail("unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, schema.OK(map[string]string{"status": "ok"}))
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, schema.OK(map[string]any{
		"name":        "humcp",
		"version":     serverVersion,
		"tools_count": s.reg.Len(),
		"endpoints": map[string]string{
			"tools": "/tools",
			"mcp":   "/mcp",
		},
	}))
}

// toolSummary is the per-tool entry in listings.
type toolSummary struct {
	Name     string `json:"name"`
	Summary  string `json:"summary"`
	Endpoint string `json:"endpoint"`
}

func summarize(d schema.Descriptor) toolSummary {
	return toolSummary{Name: d.Name, Summary: d.Summary, Endpoint: "/tools/" + d.Name}
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	skillMeta := s.skills.Metadata()

	categories := make(map[string]any, len(s.reg.Categories()))
	for category, ds := range s.reg.All() {
		tools := make([]toolSummary, 0, len(ds))
		for _, d := range ds {
			tools = append(tools, summarize(d))
		}
		entry := map[string]any{"count": len(ds), "tools": tools}
		if meta, ok := skillMeta[category]; ok {
			entry["skill"] = meta
		}
		categories[category] = entry
	}

	writeJSON(w, http.StatusOK, schema.OK(map[string]any{
		"total_tools": s.reg.Len(),
		"categories":  categories,
	}))
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	ds := s.reg.ListByCategory(category)
	if len(ds) == 0 {
		writeJSON(w, http.StatusNotFound, schema.Fail(fmt.Sprintf("category %q not found", category)))
		return
	}

	tools := make([]toolSummary, 0, len(ds))
	for _, d := range ds {
		tools = append(tools, summarize(d))
	}
	body := map[string]any{
		"category": category,
		"count":    len(ds),
		"tools":    tools,
	}
	if skill, ok := s.skills.Get(category); ok {
		body["skill"] = skill
	}
	writeJSON(w, http.StatusOK, schema.OK(body))
}

func (s *Server) handleToolInfo(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	name := chi.URLParam(r, "name")

	// Exact name first, then with the category prefix.
	d, err := s.reg.Get(name)
	if err != nil {
		d, err = s.reg.Get(category + "_" + name)
	}
	if err != nil || d.Category != category {
		writeJSON(w, http.StatusNotFound,
			schema.Fail(fmt.Sprintf("tool %q not found in category %q", name, category)))
		return
	}

	writeJSON(w, http.StatusOK, schema.OK(map[string]any{
		"name":         d.Name,
		"category":     d.Category,
		"description":  d.Doc(),
		"endpoint":     "/tools/" + d.Name,
		"input_schema": d.Params,
	}))
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	payload, err := decodePayload(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, schema.Fail("invalid JSON body: "+err.Error()))
		return
	}
	s.writeCallResult(w, r, name, payload)
}

// writeCallResult runs the shared invocation path and writes the envelope.
func (s *Server) writeCallResult(w http.ResponseWriter, r *http.Request, name string, payload map[string]any) {
	env, status, fieldErrs := s.call(r, name, payload)
	if fieldErrs != nil {
		// Validation failures carry the collected field list alongside the
		// envelope so a caller sees every problem in one round trip.
		writeJSON(w, status, validationBody{
			Success: false,
			Error:   env.Error,
			Errors:  fieldErrs,
		})
		return
	}
	writeJSON(w, status, env)
}

// validationBody is the 400 response shape: the failure envelope plus the
// structured field error list.
type validationBody struct {
	Success bool                  `json:"success"`
	Error   string                `json:"error"`
	Errors  []validate.FieldError `json:"errors"`
}

// call resolves, validates, and invokes a tool, mapping the error taxonomy
// onto HTTP status classes. It never panics: handler panics are caught and
// reported as handler failures.
func (s *Server) call(r *http.Request, name string, payload map[string]any) (env schema.Envelope, status int, fieldErrs []validate.FieldError) {
	d, err := s.reg.Get(name)
	if err != nil {
		return schema.Fail(fmt.Sprintf("unknown tool %q", name)), http.StatusNotFound, nil
	}

	v, err := s.validator(d)
	if err != nil {
		slog.Error("Validator compile failed", "tool", name, "error", err)
		return schema.Fail("tool schema unavailable"), http.StatusInternalServerError, nil
	}

	args, err := v.Decode(payload)
	if err != nil {
		var verr *validate.Error
		if errors.As(err, &verr) {
			return schema.Fail(verr.Error()), http.StatusBadRequest, verr.Fields
		}
		return schema.Fail(err.Error()), http.StatusBadRequest, nil
	}

	result, err := s.invoke(r, d, args)
	if err != nil {
		// Full detail is logged; the caller only sees a generic message.
		slog.Error("Tool execution failed", "tool", name, "error", err)
		return schema.Fail("tool execution failed"), http.StatusInternalServerError, nil
	}
	return schema.OK(result), http.StatusOK, nil
}

// invoke runs the handler, converting panics into errors so one tool's
// failure never takes down the serving process.
func (s *Server) invoke(r *http.Request, d schema.Descriptor, args map[string]any) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return d.Handler(r.Context(), args)
}

// validator returns the memoized compiled validator for a descriptor,
// compiling it on first use.
func (s *Server) validator(d schema.Descriptor) (*validate.Validator, error) {
	entry, _ := s.compiled.LoadOrStore(d.Name, &compiledValidator{})
	cv := entry.(*compiledValidator)
	cv.once.Do(func() {
		cv.v, cv.err = validate.Compile(d.Params)
	})
	return cv.v, cv.err
}

// decodePayload reads the request body as a JSON object. Numbers are kept
// as json.Number so integer parameters can reject fractional input. An
// empty body is an empty payload.
func decodePayload(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	payload := map[string]any{}
	if err := dec.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	return payload, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
