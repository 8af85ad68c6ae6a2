package match

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/amora-app/amora-server/internal/app"
	apperrors "github.com/amora-app/amora-server/internal/errors"
	"github.com/amora-app/amora-server/internal/utils/respond"
)

var validate = validator.New()

// Registrar mounts the match engine's routes.
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the match endpoints to the router.
func (reg *Registrar) Register(r chi.Router) {
	svc := NewService(reg.appCtx)
	h := &handler{svc: svc, appCtx: reg.appCtx}

	r.Route("/v1/users/{userID}", func(r chi.Router) {
		r.Get("/feed", h.feed)
		r.Get("/search", h.search)
		r.Post("/swipe", h.swipe)
		r.Get("/liked-me", h.likedMe)
		r.Get("/liked-me/count", h.likedMeCount)
		r.Get("/matches", h.matches)
		r.Post("/boost", h.boost)
		r.Post("/premium", h.upgradePremium)
	})
}

type handler struct {
	svc    *Service
	appCtx *app.AppContext
}

type swipeRequest struct {
	TargetID uint64 `json:"targetId" validate:"required"`
	Action   string `json:"action" validate:"required"`
}

type premiumRequest struct {
	Days int `json:"days"`
}

func (h *handler) feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	page, filters := parseFeedQuery(r)

	result, err := h.svc.GetPotentialMatches(r.Context(), userID, page, filters)
	if err != nil {
		h.fail(w, err, "GetPotentialMatches", userID, 0)
		return
	}
	respond.Data(w, http.StatusOK, result)
}

func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	page, filters := parseFeedQuery(r)

	result, err := h.svc.SearchUsers(r.Context(), userID, page, filters)
	if err != nil {
		h.fail(w, err, "SearchUsers", userID, 0)
		return
	}
	respond.Data(w, http.StatusOK, result)
}

func (h *handler) swipe(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req swipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, apperrors.InvalidOperation("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.Error(w, apperrors.InvalidOperation("targetId and action are required"))
		return
	}

	result, err := h.svc.RecordAction(r.Context(), userID, req.TargetID, req.Action)
	if err != nil {
		h.fail(w, err, "RecordAction", userID, req.TargetID)
		return
	}
	respond.Data(w, http.StatusOK, result)
}

func (h *handler) likedMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	cards, err := h.svc.GetPeopleWhoLikedMe(r.Context(), userID)
	if err != nil {
		h.fail(w, err, "GetPeopleWhoLikedMe", userID, 0)
		return
	}
	respond.Data(w, http.StatusOK, cards)
}

func (h *handler) likedMeCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	count, err := h.svc.CountLikedMe(r.Context(), userID)
	if err != nil {
		h.fail(w, err, "CountLikedMe", userID, 0)
		return
	}
	respond.Data(w, http.StatusOK, map[string]int64{"count": count})
}

func (h *handler) matches(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	page := queryInt(r, "page")
	limit := queryInt(r, "limit")

	result, err := h.svc.GetMatchedUsers(r.Context(), userID, page, limit)
	if err != nil {
		h.fail(w, err, "GetMatchedUsers", userID, 0)
		return
	}
	respond.Data(w, http.StatusOK, result)
}

func (h *handler) boost(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	result, err := h.svc.BoostProfile(r.Context(), userID)
	if err != nil {
		h.fail(w, err, "BoostProfile", userID, 0)
		return
	}
	respond.Data(w, http.StatusOK, result)
}

func (h *handler) upgradePremium(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req premiumRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.svc.UpgradeToPremium(r.Context(), userID, req.Days); err != nil {
		h.fail(w, err, "UpgradeToPremium", userID, 0)
		return
	}
	respond.Message(w, http.StatusOK, "Upgraded to premium successfully")
}

func (h *handler) userID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		respond.Error(w, apperrors.InvalidOperation("userID must be a valid uint64"))
		return 0, false
	}
	return id, true
}

// fail logs internal failures with context and renders the mapped response.
func (h *handler) fail(w http.ResponseWriter, err error, op string, actorID, targetID uint64) {
	if apperrors.KindOf(err) == apperrors.KindInternal {
		h.appCtx.Logger.Error("operation failed",
			"op", op, "actor_id", actorID, "target_id", targetID, "err", err)
	}
	respond.Error(w, err)
}

func parseFeedQuery(r *http.Request) (int, Filters) {
	q := r.URL.Query()

	filters := Filters{
		Gender:        q.Get("gender"),
		MinAge:        queryInt(r, "minAge"),
		MaxAge:        queryInt(r, "maxAge"),
		MaxDistanceKm: queryInt(r, "maxDistanceKm"),
		SortBy:        q.Get("sortBy"),
		Limit:         queryInt(r, "limit"),
	}
	if lat, err := strconv.ParseFloat(q.Get("lat"), 64); err == nil {
		if lng, err := strconv.ParseFloat(q.Get("lng"), 64); err == nil {
			filters.Lat = &lat
			filters.Lng = &lng
		}
	}

	return queryInt(r, "page"), filters
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}
