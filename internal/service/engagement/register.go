package engagement

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/amora-app/amora-server/internal/app"
	apperrors "github.com/amora-app/amora-server/internal/errors"
	"github.com/amora-app/amora-server/internal/utils/respond"
)

// Registrar mounts the streak routes.
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the streak endpoints to the router.
func (reg *Registrar) Register(r chi.Router) {
	svc := NewService(reg.appCtx)
	h := &handler{svc: svc, appCtx: reg.appCtx}

	r.Route("/v1/users/{userID}/streak", func(r chi.Router) {
		r.Post("/", h.update)
		r.Post("/seen", h.seen)
	})
}

type handler struct {
	svc    *Service
	appCtx *app.AppContext
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	status, err := h.svc.UpdateStreak(r.Context(), userID)
	if err != nil {
		h.fail(w, err, "UpdateStreak", userID)
		return
	}
	respond.Data(w, http.StatusOK, status)
}

func (h *handler) seen(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.svc.MarkStreakAsSeen(r.Context(), userID); err != nil {
		h.fail(w, err, "MarkStreakAsSeen", userID)
		return
	}
	respond.Message(w, http.StatusOK, "Streak marked as seen")
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
