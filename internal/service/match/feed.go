package match

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/amora-app/amora-server/internal/db"
	apperrors "github.com/amora-app/amora-server/internal/errors"
	"github.com/amora-app/amora-server/internal/metrics"
	"github.com/amora-app/amora-server/internal/repository"
	"github.com/amora-app/amora-server/internal/scoring"
	"github.com/amora-app/amora-server/internal/utils/pagination"
)

// Sort orders for the feed.
const (
	SortRecent  = "recent" // compatibility score descending (default)
	SortAgeAsc  = "age-asc"
	SortAgeDesc = "age-desc"
)

// Filters narrows and orders the candidate feed. Zero values mean "no
// narrowing".
type Filters struct {
	Gender        string
	MinAge        int
	MaxAge        int
	Lat           *float64
	Lng           *float64
	MaxDistanceKm int
	SortBy        string
	Limit         int
}

// Candidate is one scored feed entry.
type Candidate struct {
	ID                 uint64   `json:"id"`
	FullName           string   `json:"fullName"`
	Age                *int     `json:"age"`
	Photos             []string `json:"photos"`
	Bio                string   `json:"bio,omitempty"`
	CompatibilityScore int      `json:"compatibilityScore"`
	DistanceKm         *int     `json:"distanceKm"`
}

// FeedResult is one page of the candidate feed.
type FeedResult struct {
	Page         int         `json:"page"`
	Total        int         `json:"total"`
	FallbackUsed bool        `json:"fallbackUsed"`
	Items        []Candidate `json:"items"`
}

// GetPotentialMatches builds the swipe feed for userID.
//
// Pipeline: exclusion set -> filtered candidate pool -> score + distance ->
// age/distance post-filters -> sort -> paginate. An empty page triggers the
// fallback: the broad active/has-profile pool is re-queried with no
// narrowing, sorted by compatibility alone, so the feed is never spuriously
// empty while real candidates exist.
func (s *Service) GetPotentialMatches(ctx context.Context, userID uint64, page int, filters Filters) (*FeedResult, error) {
	return s.buildFeed(ctx, userID, page, filters, defaultFeedLimit)
}

// SearchUsers is the narrow-by-default variant of the feed used by the
// search screen. Same pipeline, smaller default page size.
func (s *Service) SearchUsers(ctx context.Context, userID uint64, page int, filters Filters) (*FeedResult, error) {
	return s.buildFeed(ctx, userID, page, filters, defaultSearchLimit)
}

func (s *Service) buildFeed(ctx context.Context, userID uint64, page int, filters Filters, defaultLimit int) (*FeedResult, error) {
	me, err := s.users.GetUserWithProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user profile not found")
		}
		return nil, apperrors.Map(err)
	}
	if me.Profile == nil {
		return nil, apperrors.NotFound("user profile not found")
	}

	excluded, err := s.interactions.ListExcludedTargetIDs(ctx, userID)
	if err != nil {
		return nil, apperrors.Map(err)
	}
	excluded = append(excluded, userID)

	pool, err := s.users.QueryCandidates(ctx, repository.CandidateFilter{
		ExcludeIDs: excluded,
		Gender:     filters.Gender,
		Status:     db.StatusActive,
	})
	if err != nil {
		return nil, apperrors.Map(err)
	}

	candidates := s.scoreCandidates(me.Profile, pool, filters)
	candidates = applyPostFilters(candidates, filters)
	sortCandidates(candidates, filters.SortBy)

	pg := normalizePage(page, filters.Limit, defaultLimit)
	start, end := pg.Slice(len(candidates))
	items := candidates[start:end]
	total := len(candidates)
	fallback := false

	if len(items) == 0 {
		// Broaden: same exclusions, no gender/age/distance narrowing,
		// compatibility order only.
		pool, err = s.users.QueryCandidates(ctx, repository.CandidateFilter{
			ExcludeIDs: excluded,
			Status:     db.StatusActive,
		})
		if err != nil {
			return nil, apperrors.Map(err)
		}
		candidates = s.scoreCandidates(me.Profile, pool, Filters{})
		sortCandidates(candidates, SortRecent)
		start, end = pg.Slice(len(candidates))
		items = candidates[start:end]
		total = len(candidates)
		fallback = true
	}

	metrics.RecordFeedRequest(fallback)

	return &FeedResult{
		Page:         pg.Page,
		Total:        total,
		FallbackUsed: fallback,
		Items:        items,
	}, nil
}

// scoreCandidates computes compatibility and distance for each pool member.
// Distance is measured from the filter's reference point when provided,
// otherwise from the requester's own coordinates; it stays nil when either
// endpoint lacks coordinates.
func (s *Service) scoreCandidates(me *db.UserProfile, pool []db.User, filters Filters) []Candidate {
	now := time.Now().UTC()

	refLat, refLng := me.Latitude, me.Longitude
	if filters.Lat != nil && filters.Lng != nil {
		refLat, refLng = filters.Lat, filters.Lng
	}

	candidates := make([]Candidate, 0, len(pool))
	for _, user := range pool {
		profile := user.Profile
		if profile == nil {
			continue
		}

		score := scoring.Score(me.QuizAnswers, profile.QuizAnswers)
		metrics.RecordCompatibilityScore(score)

		candidate := Candidate{
			ID:                 user.ID,
			FullName:           profile.FullName,
			Age:                profile.Age(now),
			Photos:             profile.Photos,
			Bio:                profile.Bio,
			CompatibilityScore: score,
		}
		if refLat != nil && refLng != nil && profile.HasCoordinates() {
			d := scoring.HaversineKm(*refLat, *refLng, *profile.Latitude, *profile.Longitude)
			candidate.DistanceKm = &d
		}
		candidates = append(candidates, candidate)
	}
	return candidates
}

// applyPostFilters drops candidates outside the age and distance bounds.
// Unknown age and unknown distance pass the respective filter: null is not
// "out of range".
func applyPostFilters(candidates []Candidate, filters Filters) []Candidate {
	if filters.MinAge == 0 && filters.MaxAge == 0 && filters.MaxDistanceKm == 0 {
		return candidates
	}

	kept := candidates[:0]
	for _, c := range candidates {
		if c.Age != nil {
			if filters.MinAge > 0 && *c.Age < filters.MinAge {
				continue
			}
			if filters.MaxAge > 0 && *c.Age > filters.MaxAge {
				continue
			}
		}
		if filters.MaxDistanceKm > 0 && c.DistanceKm != nil && *c.DistanceKm > filters.MaxDistanceKm {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func sortCandidates(candidates []Candidate, sortBy string) {
	switch sortBy {
	case SortAgeAsc:
		sort.SliceStable(candidates, func(i, j int) bool {
			return ageLess(candidates[i].Age, candidates[j].Age, false)
		})
	case SortAgeDesc:
		sort.SliceStable(candidates, func(i, j int) bool {
			return ageLess(candidates[i].Age, candidates[j].Age, true)
		})
	default: // SortRecent
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].CompatibilityScore != candidates[j].CompatibilityScore {
				return candidates[i].CompatibilityScore > candidates[j].CompatibilityScore
			}
			return candidates[i].ID < candidates[j].ID
		})
	}
}

// ageLess orders by age with unknown ages always last.
func ageLess(a, b *int, desc bool) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	if desc {
		return *a > *b
	}
	return *a < *b
}

func normalizePage(page, limit, defaultLimit int) pagination.Page {
	return pagination.Normalize(page, limit, defaultLimit)
}
