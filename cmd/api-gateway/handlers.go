package main

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/crewnow/crewnow/internal/domain/comment"
	"github.com/crewnow/crewnow/internal/domain/post"
	"github.com/crewnow/crewnow/internal/domain/prefs"
	"github.com/crewnow/crewnow/internal/domain/reaction"
	"github.com/crewnow/crewnow/internal/services/feed"
	"github.com/crewnow/crewnow/internal/services/quota"
	"github.com/crewnow/crewnow/internal/services/scheduler"
	"github.com/crewnow/crewnow/internal/services/settings"
)

// userHeader carries the caller's identity; session handling lives in a
// fronting proxy.
const userHeader = "X-User-ID"

type server struct {
	log          *zap.Logger
	quota        *quota.Usecase
	feed         *feed.Usecase
	settings     *settings.Usecase
	sched        *scheduler.Usecase
	triggerToken string
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /internal/trigger", s.handleTrigger)
	mux.HandleFunc("GET /api/trigger-preview", s.handleTriggerPreview)
	mux.HandleFunc("GET /api/posting-status", s.handlePostingStatus)
	mux.HandleFunc("POST /api/posts", s.handleCreatePost)
	mux.HandleFunc("POST /api/posts/{id}/comments", s.handleCreateComment)
	mux.HandleFunc("POST /api/posts/{id}/reactions", s.handleCreateReaction)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleUpdateSettings)
	return mux
}

// handleTrigger runs one scheduler pass. Guarded by the shared token; an
// unset token rejects every caller rather than opening the endpoint up.
func (s *server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Internal-Token")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if s.triggerToken == "" {
		s.log.Warn("trigger called but no token configured")
		httpError(w, http.StatusForbidden, "trigger disabled")
		return
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.triggerToken)) != 1 {
		httpError(w, http.StatusForbidden, "bad token")
		return
	}

	forced := r.URL.Query().Get("force") == "true"
	if err := s.sched.Tick(r.Context(), forced); err != nil {
		s.log.Error("trigger tick", zap.Error(err))
		httpError(w, http.StatusInternalServerError, "tick failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "forced": forced})
}

// handleTriggerPreview computes the trigger instant for a civil day. The
// date query is unix milliseconds; absent means now.
func (s *server) handleTriggerPreview(w http.ResponseWriter, r *http.Request) {
	at := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpError(w, http.StatusBadRequest, "date must be unix milliseconds")
			return
		}
		at = time.UnixMilli(ms)
	}

	trigger, dayStart, dayEnd := s.sched.TriggerPreview(at)
	writeJSON(w, http.StatusOK, map[string]any{
		"trigger_at": trigger.UnixMilli(),
		"day_start":  dayStart.UnixMilli(),
		"day_end":    dayEnd.UnixMilli(),
		"timezone":   s.sched.Window.Zone.Name(),
	})
}

func (s *server) handlePostingStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	st, err := s.quota.Status(r.Context(), userID)
	if err != nil {
		s.log.Error("posting status", zap.Error(err))
		httpError(w, http.StatusInternalServerError, "status failed")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var body struct {
		ImageURL string `json:"image_url"`
		Caption  string `json:"caption"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.ImageURL == "" {
		httpError(w, http.StatusBadRequest, "image_url required")
		return
	}

	p := &post.Post{AuthorID: userID, ImageURL: body.ImageURL, Caption: body.Caption}
	if err := s.feed.CreatePost(r.Context(), p); err != nil {
		if errors.Is(err, feed.ErrQuotaExhausted) {
			httpError(w, http.StatusTooManyRequests, "posting quota exhausted")
			return
		}
		s.log.Error("create post", zap.Error(err))
		httpError(w, http.StatusInternalServerError, "create failed")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	postID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpError(w, http.StatusBadRequest, "bad post id")
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Content == "" {
		httpError(w, http.StatusBadRequest, "content required")
		return
	}

	c := &comment.Comment{PostID: postID, AuthorID: userID, Content: body.Content}
	if err := s.feed.CreateComment(r.Context(), c); err != nil {
		if errors.Is(err, feed.ErrPostNotFound) {
			httpError(w, http.StatusNotFound, "post not found")
			return
		}
		s.log.Error("create comment", zap.Error(err))
		httpError(w, http.StatusInternalServerError, "create failed")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *server) handleCreateReaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	postID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpError(w, http.StatusBadRequest, "bad post id")
		return
	}
	var body struct {
		Emoji string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Emoji == "" {
		httpError(w, http.StatusBadRequest, "emoji required")
		return
	}

	rx := &reaction.Reaction{PostID: postID, UserID: userID, Emoji: body.Emoji}
	if err := s.feed.CreateReaction(r.Context(), rx); err != nil {
		if errors.Is(err, feed.ErrPostNotFound) {
			httpError(w, http.StatusNotFound, "post not found")
			return
		}
		s.log.Error("create reaction", zap.Error(err))
		httpError(w, http.StatusInternalServerError, "create failed")
		return
	}
	writeJSON(w, http.StatusCreated, rx)
}

func (s *server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	p, err := s.settings.Get(r.Context(), userID)
	if err != nil {
		s.log.Error("get settings", zap.Error(err))
		httpError(w, http.StatusInternalServerError, "load failed")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var body prefs.Prefs
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpError(w, http.StatusBadRequest, "invalid json")
		return
	}
	body.UserID = userID

	p, err := s.settings.Update(r.Context(), &body)
	if err != nil {
		s.log.Error("update settings", zap.Error(err))
		httpError(w, http.StatusInternalServerError, "save failed")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.Header.Get(userHeader)
	if raw == "" {
		httpError(w, http.StatusUnauthorized, "missing "+userHeader)
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httpError(w, http.StatusBadRequest, "bad "+userHeader)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
