package profiles

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	requests map[string]MeetingRequest
	now      func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]Profile),
		requests: make(map[string]MeetingRequest),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, p Profile) (Profile, error) {
	if err := validateProfile(p); err != nil {
		return Profile{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	p.Skills = append([]string(nil), p.Skills...)
	p.AvailableFor = append([]string(nil), p.AvailableFor...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profiles[p.ID]; exists {
		return Profile{}, fmt.Errorf("profile %q already exists", p.ID)
	}
	s.profiles[p.ID] = p
	return p, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return Profile{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	return p, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Profile, error) {
	return s.Search(ctx, Query{})
}

// Search filters profiles and orders them by name, then id.
func (s *MemoryStore) Search(_ context.Context, q Query) ([]Profile, error) {
	s.mu.RLock()
	out := make([]Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		if matches(p, q) {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) CreateRequest(_ context.Context, r MeetingRequest) (MeetingRequest, error) {
	if err := validateRequest(r); err != nil {
		return MeetingRequest{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[r.ProfileID]; !ok {
		return MeetingRequest{}, fmt.Errorf("request for %q: %w", r.ProfileID, ErrNotFound)
	}
	r.ID = uuid.NewString()
	r.Status = StatusPending
	r.CreatedAt = s.now()
	s.requests[r.ID] = r
	return r, nil
}

func (s *MemoryStore) ListRequests(_ context.Context, profileID string) ([]MeetingRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []MeetingRequest
	for _, r := range s.requests {
		if r.ProfileID == profileID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
