// Package testutil provides an in-memory fake of the LexAI HTTP service for
// tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// FakeUser is an account known to the fake service.
type FakeUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsAdmin   bool   `json:"is_admin"`
	Password  string `json:"-"`
}

type fakeMessage struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Sender     string    `json:"sender"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	Vote       *string   `json:"vote"`
	FeedbackID *string   `json:"feedback_id"`
}

type fakeSession struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Messages  []fakeMessage `json:"messages"`
}

type fakeFeedback struct {
	ID           string    `json:"id"`
	AnswerID     string    `json:"answer_id"`
	QuestionText string    `json:"question_text"`
	AnswerText   string    `json:"answer_text"`
	Vote         *string   `json:"vote"`
	UserID       string    `json:"user_id"`
	Timestamp    time.Time `json:"ts"`
	UserEmail    string    `json:"user_email"`
	UserName     string    `json:"user_name"`
}

// Server is a fake LexAI service backed by httptest.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	users     map[string]*FakeUser
	tokens    map[string]string // token -> user id
	sessions  map[string]*fakeSession
	order     []string // session ids, oldest first
	feedback  map[string]*fakeFeedback
	fbOrder   []string
	failures  map[string]int
	counts    map[string]int
	auth      map[string]string // route -> last Authorization header
	bodies    map[string][]string
	askGate   chan struct{}
	askStart  chan struct{}
	nextSesID string
	omitSesID bool
	answer    func(query string) string
}

// NewServer starts a fake service and closes it at test cleanup.
func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		users:    make(map[string]*FakeUser),
		tokens:   make(map[string]string),
		sessions: make(map[string]*fakeSession),
		feedback: make(map[string]*fakeFeedback),
		failures: make(map[string]int),
		counts:   make(map[string]int),
		auth:     make(map[string]string),
		bodies:   make(map[string][]string),
		answer:   func(q string) string { return "Yanıt: " + q },
	}

	mux := http.NewServeMux()
	s.handle(mux, "POST /auth/login", s.login)
	s.handle(mux, "GET /auth/me", s.authed(s.me))
	s.handle(mux, "POST /auth/register", s.register)
	s.handle(mux, "GET /auth/users", s.admin(s.listUsers))
	s.handle(mux, "GET /auth/users/{id}", s.authed(s.getUser))
	s.handle(mux, "PATCH /auth/users/{id}/make-admin", s.admin(s.setAdmin(true)))
	s.handle(mux, "PATCH /auth/users/{id}/remove-admin", s.admin(s.setAdmin(false)))
	s.handle(mux, "DELETE /auth/delete/{id}", s.authed(s.deleteUser))
	s.handle(mux, "POST /ask", s.authed(s.ask))
	s.handle(mux, "GET /conversation/list", s.authed(s.listSessions))
	s.handle(mux, "GET /conversation/session/{id}", s.authed(s.getSession))
	s.handle(mux, "PATCH /conversation/session/{id}", s.authed(s.renameSession))
	s.handle(mux, "DELETE /conversation/session/{id}", s.authed(s.deleteSession))
	s.handle(mux, "PATCH /feedback/{id}/vote", s.authed(s.vote))
	s.handle(mux, "GET /feedback/all", s.admin(s.listFeedback))
	s.handle(mux, "GET /feedback/{id}", s.getFeedback)
	s.handle(mux, "POST /similar/analyze", s.authed(s.similar))

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// AddUser registers an account and returns it.
func (s *Server) AddUser(email, password string, admin bool) *FakeUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &FakeUser{
		ID:        uuid.NewString(),
		Email:     email,
		FirstName: strings.Split(email, "@")[0],
		LastName:  "Test",
		IsAdmin:   admin,
		Password:  password,
	}
	s.users[u.ID] = u
	return u
}

// TokenFor returns a valid token for user without going through login.
func (s *Server) TokenFor(u *FakeUser) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := "token-" + u.ID
	s.tokens[token] = u.ID
	return token
}

// User returns a copy of the stored account.
func (s *Server) User(id string) (FakeUser, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return FakeUser{}, false
	}
	return *u, true
}

// Fail makes the next n requests to route (e.g. "POST /ask") answer status.
func (s *Server) Fail(route string, status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route+"#"+fmt.Sprint(status)] = n
}

// Count returns how many requests route received.
func (s *Server) Count(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[route]
}

// LastAuthorization returns the Authorization header last sent to route.
func (s *Server) LastAuthorization(route string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth[route]
}

// Bodies returns the raw request bodies sent to route.
func (s *Server) Bodies(route string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.bodies[route]...)
}

// GateAsk makes POST /ask block until Release is called. The returned
// channel receives once per request that reaches the gate.
func (s *Server) GateAsk() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.askGate = make(chan struct{})
	s.askStart = make(chan struct{}, 16)
	return s.askStart
}

// Release unblocks gated POST /ask requests.
func (s *Server) Release() {
	s.mu.Lock()
	gate := s.askGate
	s.askGate = nil
	s.mu.Unlock()
	if gate != nil {
		close(gate)
	}
}

// NextSessionID forces the id of the next server session.
func (s *Server) NextSessionID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSesID = id
}

// OmitSessionID makes the next POST /ask answer with an empty session_id.
func (s *Server) OmitSessionID() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.omitSesID = true
}

// SetAnswer replaces the function that builds answers to POST /ask.
func (s *Server) SetAnswer(fn func(query string) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answer = fn
}

// SessionTitle returns a server session title.
func (s *Server) SessionTitle(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return "", false
	}
	return sess.Title, true
}

// FeedbackVote returns the stored vote of a feedback record.
func (s *Server) FeedbackVote(id string) *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.feedback[id]; ok {
		return f.Vote
	}
	return nil
}

// AddFeedback seeds a feedback record.
func (s *Server) AddFeedback(user *FakeUser, question, answer string, vote *string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.feedback[id] = &fakeFeedback{
		ID: id, AnswerID: uuid.NewString(), QuestionText: question, AnswerText: answer,
		Vote: vote, UserID: user.ID, Timestamp: time.Now(), UserEmail: user.Email,
		UserName: user.FirstName + " " + user.LastName,
	}
	s.fbOrder = append(s.fbOrder, id)
	return id
}

func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		body := readBody(r)

		s.mu.Lock()
		s.counts[pattern]++
		s.auth[pattern] = r.Header.Get("Authorization")
		s.bodies[pattern] = append(s.bodies[pattern], body)
		var failStatus int
		for key, n := range s.failures {
			route, status, _ := strings.Cut(key, "#")
			if route == pattern && n > 0 {
				s.failures[key] = n - 1
				fmt.Sscan(status, &failStatus)
				break
			}
		}
		s.mu.Unlock()

		if failStatus != 0 {
			writeDetail(w, failStatus, "injected failure")
			return
		}
		r.Body = newBody(body)
		h(w, r)
	})
}

type userHandler func(w http.ResponseWriter, r *http.Request, u *FakeUser)

func (s *Server) authed(h userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		id, ok := s.tokens[token]
		u := s.users[id]
		s.mu.Unlock()
		if !ok || u == nil {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		h(w, r, u)
	}
}

func (s *Server) admin(h userHandler) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request, u *FakeUser) {
		if !u.IsAdmin {
			writeDetail(w, http.StatusForbidden, "Admin only")
			return
		}
		h(w, r, u)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form")
		return
	}
	email, password := r.PostForm.Get("username"), r.PostForm.Get("password")

	s.mu.Lock()
	var found *FakeUser
	for _, u := range s.users {
		if u.Email == email && u.Password == password {
			found = u
		}
	}
	var token string
	if found != nil {
		token = "token-" + found.ID
		s.tokens[token] = found.ID
	}
	s.mu.Unlock()

	if found == nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request, u *FakeUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Password  string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	s.mu.Lock()
	for _, u := range s.users {
		if u.Email == req.Email {
			s.mu.Unlock()
			writeDetail(w, http.StatusBadRequest, "Email already registered")
			return
		}
	}
	u := &FakeUser{ID: uuid.NewString(), Email: req.Email, FirstName: req.FirstName, LastName: req.LastName, Password: req.Password}
	s.users[u.ID] = u
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request, _ *FakeUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]FakeUser, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request, _ *FakeUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[r.PathValue("id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) setAdmin(admin bool) userHandler {
	return func(w http.ResponseWriter, r *http.Request, _ *FakeUser) {
		s.mu.Lock()
		defer s.mu.Unlock()
		u, ok := s.users[r.PathValue("id")]
		if !ok {
			writeDetail(w, http.StatusNotFound, "User not found")
			return
		}
		u.IsAdmin = admin
		writeDetail(w, http.StatusOK, "updated")
	}
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request, caller *FakeUser) {
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if caller.ID != id && !caller.IsAdmin {
		writeDetail(w, http.StatusForbidden, "Unauthorized to delete this user")
		return
	}
	if _, ok := s.users[id]; !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	delete(s.users, id)
	writeDetail(w, http.StatusOK, "deleted")
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request, u *FakeUser) {
	var req struct {
		Query     string  `json:"query"`
		SessionID *string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	s.mu.Lock()
	gate, started := s.askGate, s.askStart
	s.mu.Unlock()
	if gate != nil {
		started <- struct{}{}
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var sess *fakeSession
	if req.SessionID != nil {
		sess = s.sessions[*req.SessionID]
	}
	if sess == nil {
		id := uuid.NewString()
		if s.nextSesID != "" {
			id, s.nextSesID = s.nextSesID, ""
		}
		sess = &fakeSession{ID: id, UserID: u.ID, Title: "Yeni Sohbet", CreatedAt: now, UpdatedAt: now}
		s.sessions[id] = sess
		s.order = append(s.order, id)
	}

	answer := s.answer(req.Query)
	answerID, feedbackID := uuid.NewString(), uuid.NewString()
	s.feedback[feedbackID] = &fakeFeedback{
		ID: feedbackID, AnswerID: answerID, QuestionText: req.Query, AnswerText: answer,
		UserID: u.ID, Timestamp: now, UserEmail: u.Email, UserName: u.FirstName + " " + u.LastName,
	}
	s.fbOrder = append(s.fbOrder, feedbackID)

	fid := feedbackID
	sess.Messages = append(sess.Messages,
		fakeMessage{ID: uuid.NewString(), SessionID: sess.ID, Sender: "user", Content: req.Query, Timestamp: now},
		fakeMessage{ID: answerID, SessionID: sess.ID, Sender: "assistant", Content: answer, Timestamp: now, FeedbackID: &fid},
	)
	sess.UpdatedAt = now

	sid := sess.ID
	if s.omitSesID {
		sid, s.omitSesID = "", false
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"answer":      answer,
		"session_id":  sid,
		"answer_id":   answerID,
		"feedback_id": feedbackID,
	})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request, u *FakeUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]any{}
	for i := len(s.order) - 1; i >= 0; i-- {
		sess := s.sessions[s.order[i]]
		if sess == nil || sess.UserID != u.ID {
			continue
		}
		out = append(out, map[string]any{"id": sess.ID, "title": sess.Title, "created_at": sess.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request, u *FakeUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[r.PathValue("id")]
	if !ok || sess.UserID != u.ID {
		writeDetail(w, http.StatusNotFound, "Session not found")
		return
	}
	for i := range sess.Messages {
		if fid := sess.Messages[i].FeedbackID; fid != nil {
			if f, ok := s.feedback[*fid]; ok {
				sess.Messages[i].Vote = f.Vote
			}
		}
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) renameSession(w http.ResponseWriter, r *http.Request, u *FakeUser) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[r.PathValue("id")]
	if !ok || sess.UserID != u.ID {
		writeDetail(w, http.StatusNotFound, "Session not found")
		return
	}
	sess.Title = req.Title
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request, u *FakeUser) {
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.UserID != u.ID {
		writeDetail(w, http.StatusNotFound, "Session not found")
		return
	}
	delete(s.sessions, id)
	writeDetail(w, http.StatusOK, "Session deleted successfully")
}

func (s *Server) vote(w http.ResponseWriter, r *http.Request, u *FakeUser) {
	var req struct {
		Vote string `json:"vote"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	if req.Vote != "like" && req.Vote != "dislike" {
		writeDetail(w, http.StatusBadRequest, "Vote must be 'like' or 'dislike'")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.feedback[r.PathValue("id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Feedback not found")
		return
	}
	if f.UserID != u.ID {
		writeDetail(w, http.StatusForbidden, "You can only vote for your own feedbacks")
		return
	}
	v := req.Vote
	f.Vote = &v
	writeJSON(w, http.StatusOK, map[string]string{"detail": "Vote updated", "feedback_id": f.ID, "vote": v})
}

func (s *Server) listFeedback(w http.ResponseWriter, r *http.Request, _ *FakeUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]fakeFeedback, 0, len(s.fbOrder))
	for _, id := range s.fbOrder {
		if f, ok := s.feedback[id]; ok {
			out = append(out, *f)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getFeedback(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.feedback[r.PathValue("id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Feedback not found")
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) similar(w http.ResponseWriter, r *http.Request, _ *FakeUser) {
	var req struct {
		Query            string `json:"query"`
		TopN             int    `json:"topn"`
		IncludeSummaries bool   `json:"include_summaries"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	davaTuru := "İşe İade"
	sonuc := "Kabul"
	cases := []map[string]any{}
	for i := 0; i < req.TopN && i < 2; i++ {
		cases = append(cases, map[string]any{
			"doc_id": fmt.Sprintf("doc-%d", i+1), "dava_turu": davaTuru, "sonuc": sonuc,
			"gerekce": "Gerekçe metni", "karar": nil, "hikaye": nil,
			"similarity_score": 0.9 - float64(i)*0.1, "source": "yargitay",
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":         req.Query,
		"similar_cases": cases,
		"related_laws": []map[string]any{
			{"law_name": "İş Kanunu", "article_no": "18", "relevance_score": 0.8},
		},
		"total_cases_found": len(cases),
		"timestamp":         time.Now(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func readBody(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	data, _ := io.ReadAll(r.Body)
	_ = r.Body.Close()
	return string(data)
}

func newBody(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}
