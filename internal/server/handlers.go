package server

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/msalah0e/pdbview/internal/engine"
	"github.com/msalah0e/pdbview/internal/view"
	"github.com/msalah0e/pdbview/internal/viewer"
)

//go:embed web/index.html
var indexHTML []byte

// maxBody bounds uploaded structure text.
const maxBody = 64 << 20

var validate = validator.New()

// Response is the body of every /api call.
type Response struct {
	Session    string           `json:"session"`
	State      view.State       `json:"state"`
	Visibility view.Visibility  `json:"visibility"`
	FileName   string           `json:"fileName,omitempty"`
	Atoms      int              `json:"atoms"`
	Selected   int              `json:"selected,omitempty"`
	Alert      string           `json:"alert,omitempty"`
	Commands   []engine.Command `json:"commands"`
}

// StateRequest is a partial state change. Radius applies the radius control
// for the current size selection.
type StateRequest struct {
	Representation *string  `json:"representation" validate:"omitempty,oneof=cartoon stick sphere"`
	Filter         *string  `json:"residueFilter" validate:"omitempty,oneof=all protein water"`
	Size           *string  `json:"sizeSelection" validate:"omitempty,oneof=all protein water selected custom"`
	ProteinRadius  *float64 `json:"proteinRadius" validate:"omitempty,gte=0.1,lte=2"`
	WaterRadius    *float64 `json:"waterRadius" validate:"omitempty,gte=0.1,lte=2"`
	Radius         *float64 `json:"radius" validate:"omitempty,gte=0.1,lte=2"`
	Highlight      *bool    `json:"highlightEnabled"`
	CustomExpr     *string  `json:"customExpr" validate:"omitempty,max=4096"`
}

// LoadRequest uploads structure text.
type LoadRequest struct {
	FileName string `json:"fileName" validate:"max=255"`
	Data     string `json:"data" validate:"required"`
}

// FetchRequest loads a structure by PDB id.
type FetchRequest struct {
	ID string `json:"id" validate:"max=16"`
}

// CustomRequest applies a custom expression. A nil Expr applies the stored
// one.
type CustomRequest struct {
	Expr *string `json:"expr" validate:"omitempty,max=4096"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.Sessions()})
}

// handleGetState restores the session onto a fresh page: the response
// replays the whole scene.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	s.do(w, r, func(sess *session) error {
		sess.rec.Drain()
		return sess.ctrl.Restore(r.Context())
	})
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	s.do(w, r, func(*session) error { return nil })
}

func (s *Server) handleSetState(w http.ResponseWriter, r *http.Request) {
	var req StateRequest
	if !decode(w, r, &req) {
		return
	}
	s.do(w, r, func(sess *session) error {
		next, err := req.apply(sess.ctrl.State())
		if err != nil {
			return err
		}
		return sess.ctrl.Update(next)
	})
}

func (req StateRequest) apply(st view.State) (view.State, error) {
	if req.Representation != nil {
		rep, err := view.ParseRepresentation(*req.Representation)
		if err != nil {
			return st, err
		}
		st = st.WithRepresentation(rep)
	}
	if req.Filter != nil {
		f, err := view.ParseFilter(*req.Filter)
		if err != nil {
			return st, err
		}
		st = st.WithFilter(f)
	}
	if req.Size != nil {
		z, err := view.ParseSize(*req.Size)
		if err != nil {
			return st, err
		}
		st = st.WithSize(z)
	}
	if req.ProteinRadius != nil {
		st = st.WithProteinRadius(*req.ProteinRadius)
	}
	if req.WaterRadius != nil {
		st = st.WithWaterRadius(*req.WaterRadius)
	}
	if req.Radius != nil {
		st = st.WithSlider(*req.Radius)
	}
	if req.Highlight != nil {
		st = st.WithHighlight(*req.Highlight)
	}
	if req.CustomExpr != nil {
		st = st.WithCustomExpr(*req.CustomExpr)
	}
	return st, nil
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	if !decode(w, r, &req) {
		return
	}
	s.do(w, r, func(sess *session) error {
		return sess.ctrl.LoadText(r.Context(), req.Data, req.FileName)
	})
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	var req FetchRequest
	if !decode(w, r, &req) {
		return
	}
	s.do(w, r, func(sess *session) error {
		return sess.ctrl.LoadID(r.Context(), req.ID)
	})
}

func (s *Server) handleCustom(w http.ResponseWriter, r *http.Request) {
	var req CustomRequest
	if !decode(w, r, &req) {
		return
	}
	s.do(w, r, func(sess *session) error {
		if req.Expr != nil {
			if err := sess.ctrl.SetCustomExpr(*req.Expr); err != nil {
				return err
			}
		}
		return sess.ctrl.ApplyCustom()
	})
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	serial, err := strconv.Atoi(chi.URLParam(r, "serial"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "serial must be a number")
		return
	}
	s.do(w, r, func(sess *session) error { return sess.ctrl.Hover(serial) })
}

func (s *Server) handleUnhover(w http.ResponseWriter, r *http.Request) {
	s.do(w, r, func(sess *session) error { return sess.ctrl.Hover(0) })
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	serial, err := strconv.Atoi(chi.URLParam(r, "serial"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "serial must be a number")
		return
	}
	s.do(w, r, func(sess *session) error { return sess.ctrl.Click(serial) })
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mu.Lock()
	sess, ok := s.sessions[c.Value]
	s.mu.Unlock()
	if ok {
		sess.mu.Lock()
		err := sess.ctrl.EndSession()
		sess.mu.Unlock()
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.endSession(c.Value)
		s.log.Info("session ended", zap.String("session", c.Value))
	}
	http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

// do runs fn on the caller's session and writes the resulting state with
// the commands fn recorded. A UserError becomes an alert in a 200 response.
func (s *Server) do(w http.ResponseWriter, r *http.Request, fn func(*session) error) {
	sess, err := s.session(w, r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = time.Now()

	err = fn(sess)
	resp := Response{
		Session:  sess.id,
		State:    sess.ctrl.State(),
		FileName: sess.ctrl.FileName(),
		Commands: sess.rec.Drain(),
	}
	resp.Visibility = resp.State.Visibility()
	if m := sess.ctrl.Model(); m != nil {
		resp.Atoms = len(m.Atoms)
	}
	if a, ok := sess.ctrl.Selected(); ok {
		resp.Selected = a.Serial
	}
	if resp.Commands == nil {
		resp.Commands = []engine.Command{}
	}

	if err == nil {
		respondJSON(w, http.StatusOK, resp)
		return
	}
	if alert, ok := viewer.AlertOf(err); ok {
		resp.Alert = alert
		respondJSON(w, http.StatusOK, resp)
		return
	}
	respondError(w, statusOf(err), err.Error())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, view.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrUnknownAtom), errors.Is(err, engine.ErrNoModel):
		return http.StatusNotFound
	case errors.Is(err, viewer.ErrStaleLoad):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v and validates it, writing a 400 on
// failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	if err := validate.Struct(v); err != nil {
		respondError(w, http.StatusBadRequest, formatValidationError(err))
		return false
	}
	return true
}

func formatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		case "gte", "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be between %g and %g", field, view.MinRadius, view.MaxRadius))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s long", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
