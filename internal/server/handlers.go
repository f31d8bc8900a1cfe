package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/backend"
	"github.com/MrEthical07/goAdmin/middleware"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 16

type errorBody struct {
	Error string `json:"error"`
}

type stateBody struct {
	Page goAdmin.PageState `json:"page"`
	// OTPRemainingSeconds is the time left on the pending code.
	OTPRemainingSeconds int         `json:"otpRemainingSeconds,omitempty"`
	Navigate            *navigation `json:"navigate,omitempty"`
}

type loginBody struct {
	Result   *goAdmin.LoginResult `json:"result,omitempty"`
	Error    string               `json:"error,omitempty"`
	Navigate *navigation          `json:"navigate,omitempty"`
}

type otpBody struct {
	Result   *goAdmin.OTPResult `json:"result,omitempty"`
	Code     string             `json:"code,omitempty"`
	Error    string             `json:"error,omitempty"`
	Navigate *navigation        `json:"navigate,omitempty"`
}

type sessionBody struct {
	Identity *goAdmin.Identity `json:"identity"`
	Loading  bool              `json:"loading"`
	Sections []goAdmin.Section `json:"sections,omitempty"`
	Navigate *navigation       `json:"navigate,omitempty"`
}

type sectionBody struct {
	Section goAdmin.Section `json:"section"`
	Items   []backend.Item  `json:"items"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return false
	}
	return true
}

func (s *Server) pageState(w http.ResponseWriter, r *http.Request, bt *browserTab) {
	st, err := bt.tab.Login.State(r.Context())
	if err != nil {
		s.logger.Error("load login state", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "storage unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, stateBody{
		Page:                st,
		OTPRemainingSeconds: int(bt.tab.Login.OTPRemaining().Seconds()),
		Navigate:            bt.nav.take(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.pageState(w, r, s.tab(r))
}

func (s *Server) handleLoginType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LoginType string `json:"loginType"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	bt := s.tab(r)
	if _, err := bt.tab.Login.SelectLoginType(r.Context(), goAdmin.LoginType(req.LoginType)); err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, goAdmin.ErrInvalidLoginType) && !errors.Is(err, goAdmin.ErrLoginTypeDisabled) {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, errorBody{Error: err.Error()})
		return
	}
	s.pageState(w, r, bt)
}

// loginStatus maps an outcome to the response status. The body always
// carries the full result.
func loginStatus(res *goAdmin.LoginResult) int {
	switch res.Outcome {
	case goAdmin.LoginOTPRequired:
		return http.StatusOK
	case goAdmin.LoginLocked:
		return http.StatusLocked
	case goAdmin.LoginInvalidCredentials:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	bt := s.tab(r)
	res, err := bt.tab.Login.Submit(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, goAdmin.ErrInvalidEmail), errors.Is(err, goAdmin.ErrEmptyPassword):
		writeJSON(w, http.StatusBadRequest, loginBody{Error: err.Error()})
	case errors.Is(err, goAdmin.ErrLoginBusy):
		writeJSON(w, http.StatusConflict, loginBody{Error: err.Error()})
	case errors.Is(err, goAdmin.ErrLoginLocked):
		writeJSON(w, http.StatusLocked, loginBody{Result: res})
	case errors.Is(err, backend.ErrUnavailable):
		writeJSON(w, http.StatusBadGateway, loginBody{Result: res})
	case err != nil:
		s.logger.Error("login submit", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, loginBody{Result: res, Error: "login failed"})
	default:
		writeJSON(w, loginStatus(res), loginBody{Result: res, Navigate: bt.nav.take()})
	}
}

func (s *Server) handleOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	bt := s.tab(r)
	code, err := bt.tab.Login.SetOTPCode(req.Code)
	if err != nil {
		writeJSON(w, http.StatusConflict, otpBody{Error: err.Error()})
		return
	}

	res, err := bt.tab.Login.VerifyOTP(r.Context())
	switch {
	case errors.Is(err, goAdmin.ErrOTPIncomplete):
		writeJSON(w, http.StatusBadRequest, otpBody{Code: code, Error: err.Error()})
	case errors.Is(err, goAdmin.ErrNoChallenge), errors.Is(err, goAdmin.ErrLoginBusy):
		writeJSON(w, http.StatusConflict, otpBody{Error: err.Error()})
	case errors.Is(err, backend.ErrUnavailable):
		writeJSON(w, http.StatusBadGateway, otpBody{Result: res, Code: code})
	case err != nil:
		s.logger.Error("otp verify", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, otpBody{Result: res, Error: "verification failed"})
	case !res.Success:
		if res.ClearCode {
			code = ""
		}
		writeJSON(w, http.StatusUnauthorized, otpBody{Result: res, Code: code})
	default:
		writeJSON(w, http.StatusOK, otpBody{Result: res})
	}
}

func (s *Server) handleOTPBack(w http.ResponseWriter, r *http.Request) {
	s.tab(r).tab.Login.Back()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	bt := s.tab(r)
	if err := bt.tab.Session.Logout(r.Context()); err != nil {
		s.logger.Error("logout", slog.String("error", err.Error()))
	}
	writeJSON(w, http.StatusOK, sessionBody{Navigate: bt.nav.take()})
}

// handleSession runs the tab's startup check for ?route= (the dashboard root
// by default) and reports the session.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	bt := s.tab(r)
	route := r.URL.Query().Get("route")
	if route == "" {
		route = s.routes.Dashboard
	}
	if err := bt.tab.Session.Init(r.Context(), route); err != nil {
		s.logger.Error("session init", slog.String("error", err.Error()))
	}
	view := bt.tab.Session.View()
	writeJSON(w, http.StatusOK, sessionBody{
		Identity: view.Identity,
		Loading:  view.Loading,
		Sections: visibleSections(view.Identity),
		Navigate: bt.nav.take(),
	})
}

func visibleSections(id *goAdmin.Identity) []goAdmin.Section {
	if id == nil {
		return nil
	}
	var out []goAdmin.Section
	for _, sec := range goAdmin.Sections {
		if !sec.AdminOnly || id.LoginType == goAdmin.LoginTypeAdmin {
			out = append(out, sec)
		}
	}
	return out
}

func (s *Server) handleSectionIndex(w http.ResponseWriter, r *http.Request) {
	bt := s.tab(r)
	if err := bt.tab.Session.Init(r.Context(), s.routes.Dashboard); err != nil {
		s.logger.Error("session init", slog.String("error", err.Error()))
	}
	writeJSON(w, http.StatusOK, visibleSections(bt.tab.Session.Identity()))
}

// handleSection lists one section behind the route guard for it.
func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	sec, ok := goAdmin.SectionByName(chi.URLParam(r, "section"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown section"})
		return
	}
	bt := s.tab(r)
	if err := bt.tab.Session.Init(r.Context(), sec.Route(s.routes)); err != nil {
		s.logger.Error("session init", slog.String("error", err.Error()))
	}
	// Init may have navigated; the guard reports its own redirect.
	bt.nav.take()

	resolve := func(*http.Request) (goAdmin.SessionView, bool) {
		return bt.tab.Session.View(), true
	}
	guard := s.client.Guard(sec.AllowedLoginTypes())
	list := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items, err := s.client.List(r.Context(), bt.tab, sec.Name)
		switch {
		case errors.Is(err, backend.ErrUnauthorized):
			bt.nav.take()
			writeJSON(w, http.StatusUnauthorized, middleware.Redirect{Redirect: s.routes.Login, Status: "redirect"})
		case err != nil:
			s.logger.Warn("list section", slog.String("section", sec.Name), slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadGateway, errorBody{Error: "backend unavailable"})
		default:
			if items == nil {
				items = []backend.Item{}
			}
			writeJSON(w, http.StatusOK, sectionBody{Section: sec, Items: items})
		}
	})
	middleware.Guard(guard, s.routes.Login, resolve)(list).ServeHTTP(w, r)
}
