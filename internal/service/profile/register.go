package profile

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/amora-app/amora-server/internal/app"
	apperrors "github.com/amora-app/amora-server/internal/errors"
	"github.com/amora-app/amora-server/internal/utils/respond"
)

// Registrar mounts the profile routes.
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the profile endpoints to the router.
func (reg *Registrar) Register(r chi.Router) {
	svc := NewService(reg.appCtx)
	h := &handler{svc: svc, appCtx: reg.appCtx}

	r.Route("/v1/users/{userID}/profile", func(r chi.Router) {
		r.Get("/", h.get)
		r.Patch("/", h.patch)
		r.Put("/quiz", h.quiz)
	})
}

type handler struct {
	svc    *Service
	appCtx *app.AppContext
}

type quizRequest struct {
	Answers map[string][]string `json:"answers"`
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	summary, err := h.svc.Get(r.Context(), userID)
	if err != nil {
		h.fail(w, err, "GetProfile", userID)
		return
	}
	respond.Data(w, http.StatusOK, summary)
}

func (h *handler) patch(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req Patch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, apperrors.InvalidOperation("invalid request body"))
		return
	}

	updated, err := h.svc.Apply(r.Context(), userID, req)
	if err != nil {
		h.fail(w, err, "ApplyProfilePatch", userID)
		return
	}
	respond.Data(w, http.StatusOK, updated)
}

func (h *handler) quiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req quizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, apperrors.InvalidOperation("invalid request body"))
		return
	}

	updated, err := h.svc.SubmitQuiz(r.Context(), userID, req.Answers)
	if err != nil {
		h.fail(w, err, "SubmitQuiz", userID)
		return
	}
	respond.Data(w, http.StatusOK, updated)
}

func (h *handler) userID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		respond.Error(w, apperrors.InvalidOperation("userID must be a valid uint64"))
		return 0, false
	}
	return id, true
}

func (h *handler) fail(w http.ResponseWriter, err error, op string, userID uint64) {
	if apperrors.KindOf(err) == apperrors.KindInternal {
		h.appCtx.Logger.Error("operation failed", "op", op, "user_id", userID, "err", err)
	}
	respond.Error(w, err)
}
