package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"orbit/app/core/habits"
	"orbit/app/core/mood"
	"orbit/app/core/orchestrator"
	"orbit/app/core/persona"
	"orbit/app/core/reconcile"
	"orbit/app/core/task"
	"orbit/app/pkg/logger"
	"orbit/app/pkg/types"
)

const (
	defaultResponseTimeout = 60 * time.Second
	maxBodyBytes           = 1 << 20
)

// Channel is the REST surface over the dashboard: conversation, task CRUD,
// mood log and proposal resolution.
type Channel struct {
	id              string
	port            int
	server          *http.Server
	shutdownTimeout time.Duration

	store      *task.Store
	moods      *mood.Log
	sessions   *persona.Sessions
	habitModel *habits.Model
	orch       *orchestrator.Orchestrator

	statusProvider func() map[string]interface{}
}

type Options struct {
	Port         int
	Store        *task.Store
	Moods        *mood.Log
	Sessions     *persona.Sessions
	Habits       *habits.Model
	Orchestrator *orchestrator.Orchestrator
}

func NewChannel(opts Options) *Channel {
	return &Channel{
		id:              "http",
		port:            opts.Port,
		shutdownTimeout: 5 * time.Second,
		store:           opts.Store,
		moods:           opts.Moods,
		sessions:        opts.Sessions,
		habitModel:      opts.Habits,
		orch:            opts.Orchestrator,
	}
}

func (c *Channel) ID() string {
	return c.id
}

// SetStatusProvider adds runtime details to /api/status.
func (c *Channel) SetStatusProvider(provider func() map[string]interface{}) {
	c.statusProvider = provider
}

func (c *Channel) Start(ctx context.Context, handle func(context.Context, types.Message) (types.Message, error)) error {
	c.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", c.port),
		Handler: c.routes(handle),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.shutdownTimeout)
		defer cancel()
		if err := c.server.Shutdown(shutdownCtx); err != nil {
			logger.Error("[HTTP] shutdown error: %v", err)
		}
	}()

	logger.Info("[HTTP] listening on port %d", c.port)
	if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (c *Channel) routes(handle func(context.Context, types.Message) (types.Message, error)) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/message", c.handleMessage(handle))
	mux.HandleFunc("/api/tasks", c.handleTasks)
	mux.HandleFunc("/api/tasks/", c.handleTaskByID)
	mux.HandleFunc("/api/moods", c.handleMoods)
	mux.HandleFunc("/api/actions", c.handleActions)
	mux.HandleFunc("/api/actions/approve", c.handleResolve(true))
	mux.HandleFunc("/api/actions/dismiss", c.handleResolve(false))
	mux.HandleFunc("/api/transcript", c.handleTranscript)
	mux.HandleFunc("/api/habits", c.handleHabits)
	mux.HandleFunc("/api/status", c.handleStatus)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return mux
}

type messageRequest struct {
	PersonaID string `json:"personaId"`
	Content   string `json:"content"`
}

type messageResponse struct {
	MessageID        string             `json:"messageId"`
	PersonaID        string             `json:"personaId"`
	Response         string             `json:"response"`
	SuggestedActions []reconcile.Action `json:"suggestedActions,omitempty"`
}

func (c *Channel) handleMessage(handle func(context.Context, types.Message) (types.Message, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req messageRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			http.Error(w, "content is required", http.StatusBadRequest)
			return
		}

		reqCtx, cancel := context.WithTimeout(r.Context(), defaultResponseTimeout)
		defer cancel()
		reply, err := handle(reqCtx, types.Message{
			ID:        fmt.Sprintf("http-%d", time.Now().UnixNano()),
			PersonaID: req.PersonaID,
			Role:      types.RoleUser,
			Text:      req.Content,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp := messageResponse{
			MessageID: reply.ID,
			PersonaID: reply.PersonaID,
			Response:  reply.Text,
		}
		if actions, ok := reply.Meta["suggestedActions"].([]reconcile.Action); ok {
			resp.SuggestedActions = actions
		}
		writeJSON(w, resp)
	}
}

func (c *Channel) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, map[string]interface{}{"tasks": c.store.Snapshot()})
	case http.MethodPost:
		var patch task.Patch
		if !decodeBody(w, r, &patch) {
			return
		}
		created := c.store.Add(patch)
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, created)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (c *Channel) handleTaskByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	id, verb, _ := strings.Cut(rest, "/")
	id = task.NormalizeID(id)
	if id == "" {
		http.Error(w, "task id is required", http.StatusBadRequest)
		return
	}

	if verb == "toggle" {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		toggled, ok := c.store.Toggle(id)
		if !ok {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}
		writeJSON(w, toggled)
		return
	}
	if verb != "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		t, ok := c.store.Get(id)
		if !ok {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}
		writeJSON(w, t)
	case http.MethodPut, http.MethodPatch:
		var patch task.Patch
		if !decodeBody(w, r, &patch) {
			return
		}
		updated, ok := c.store.Update(id, patch)
		if !ok {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}
		writeJSON(w, updated)
	case http.MethodDelete:
		if !c.store.Delete(id) {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (c *Channel) handleMoods(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, map[string]interface{}{"moods": c.moods.Recent(31)})
	case http.MethodPost:
		var entry mood.Entry
		if !decodeBody(w, r, &entry) {
			return
		}
		if entry.Score == 0 {
			http.Error(w, "score is required", http.StatusBadRequest)
			return
		}
		recorded := c.moods.Append(entry)
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, recorded)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (c *Channel) handleActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess, ok := c.lookupSession(r)
	if !ok {
		http.Error(w, "unknown persona", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]interface{}{"pending": sess.PendingActions()})
}

type resolveRequest struct {
	PersonaID string `json:"personaId"`
	MessageID string `json:"messageId"`
	ActionID  string `json:"actionId"`
}

func (c *Channel) handleResolve(approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req resolveRequest
		if !decodeBody(w, r, &req) {
			return
		}

		if approve {
			outcome, err := c.orch.Approve(req.PersonaID, req.MessageID, req.ActionID)
			if err != nil {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			writeJSON(w, outcome)
			return
		}
		if err := c.orch.Dismiss(req.PersonaID, req.MessageID, req.ActionID); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]bool{"dismissed": true})
	}
}

func (c *Channel) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess, ok := c.lookupSession(r)
	if !ok {
		http.Error(w, "unknown persona", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]interface{}{
		"persona":  sess.Persona(),
		"awaiting": sess.Awaiting(),
		"messages": sess.Transcript(),
	})
}

func (c *Channel) handleHabits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, c.habitModel.Snapshot())
}

func (c *Channel) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	status := map[string]interface{}{
		"channelId": c.id,
		"tasks":     c.store.Count(),
		"moods":     c.moods.Len(),
		"personas":  c.sessions.IDs(),
	}
	if c.statusProvider != nil {
		status["runtime"] = c.statusProvider()
	}
	writeJSON(w, status)
}

func (c *Channel) lookupSession(r *http.Request) (*persona.Session, bool) {
	id := r.URL.Query().Get("persona")
	if strings.TrimSpace(id) == "" {
		id = persona.Companion
	}
	return c.sessions.Get(id)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
