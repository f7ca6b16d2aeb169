package http

import (
	"errors"
	"net/http"

	"github.com/amandhiraj/financetracker/internal/backend"
	"github.com/amandhiraj/financetracker/internal/log"
	"github.com/amandhiraj/financetracker/internal/session"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	redirect(w, r, "/login")
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register.html", authPageView{Title: "Register"})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login.html", authPageView{Title: "Login"})
}

// credentials reads username and password from the posted form.
func credentials(r *http.Request) (string, string) {
	return sanitizeInput(r.PostForm.Get("username")), r.PostForm.Get("password")
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	username, password := credentials(r)
	view := authPageView{Title: "Register", Username: username}
	if username == "" || password == "" {
		view.Error = "Please enter a username and password."
		s.render(w, r, http.StatusUnprocessableEntity, "register.html", view)
		return
	}

	if err := s.backend.Register(r.Context(), username, password); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, backend.ErrUsernameTaken) {
			status = http.StatusBadRequest
		}
		s.requestLogger(r).WarnContext(r.Context(), "Registration failed",
			log.NewFields().WithUser(username).WithError(err).WithOperation(log.OpRegister).ToSlice()...)
		view.Error = backend.UserMessage(err, "Registration failed. Please try again.")
		s.render(w, r, status, "register.html", view)
		return
	}

	s.appMetrics.registrations.Add(1)
	s.startSession(w, r, username, "register.html", view)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	username, password := credentials(r)
	view := authPageView{Title: "Login", Username: username}
	if username == "" || password == "" {
		view.Error = "Please enter a username and password."
		s.render(w, r, http.StatusUnprocessableEntity, "login.html", view)
		return
	}

	user, err := s.backend.Login(r.Context(), username, password)
	if err != nil {
		status := http.StatusBadGateway
		fallback := "Login failed. Please try again."
		if errors.Is(err, backend.ErrUnauthorized) {
			status = http.StatusUnauthorized
			fallback = "Invalid username or password"
		}
		s.requestLogger(r).WarnContext(r.Context(), "Login failed",
			log.NewFields().WithUser(username).WithError(err).WithOperation(log.OpLogin).ToSlice()...)
		view.Error = backend.UserMessage(err, fallback)
		s.render(w, r, status, "login.html", view)
		return
	}

	s.appMetrics.logins.Add(1)
	s.startSession(w, r, user, "login.html", view)
}

// startSession persists a session for user, binds its workspace and sends
// the browser to the workspace. The initial fetch happens during the bind.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, user, page string, view authPageView) {
	sess, err := s.sessions.Login(r.Context(), w, user)
	if err != nil {
		s.requestLogger(r).WithComponent(log.ComponentSession).ErrorContext(r.Context(), "Failed to create session",
			log.NewFields().WithUser(user).WithError(err).ToSlice()...)
		view.Error = "Could not start a session. Please try again."
		s.render(w, r, http.StatusInternalServerError, page, view)
		return
	}

	if _, err := s.workspaces.Open(r.Context(), sess.Token, sess.Username); err != nil {
		s.requestLogger(r).WarnContext(r.Context(), "Initial workspace fetch failed",
			log.NewFields().WithUser(user).WithError(err).WithOperation(log.OpRefresh).ToSlice()...)
	}

	s.requestLogger(r).WithComponent(log.ComponentSession).InfoContext(r.Context(), "Session started",
		log.FieldUser, user)
	redirect(w, r, "/transactions")
}

// handleLogout tears the session down: the row is deleted, the cookie
// expired and the workspace cleared.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := session.FromContext(r.Context()); ok {
		s.workspaces.Close(sess.Token)
		s.requestLogger(r).WithComponent(log.ComponentSession).InfoContext(r.Context(), "Session ended",
			log.FieldUser, sess.Username,
			log.FieldOperation, log.OpLogout)
	}
	if err := s.sessions.Logout(r.Context(), w, r); err != nil {
		s.requestLogger(r).WithComponent(log.ComponentSession).ErrorContext(r.Context(), "Failed to delete session",
			log.FieldError, err)
	}
	s.appMetrics.logouts.Add(1)
	redirect(w, r, "/login")
}
