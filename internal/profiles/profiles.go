package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a profile or request does not exist.
var ErrNotFound = errors.New("profile not found")

// Request types a profile can be contacted for.
const (
	RequestAppointment = "appointment"
	RequestQuote       = "quote"
	RequestMeeting     = "meeting"
)

// StatusPending is the initial status of every meeting request.
const StatusPending = "pending"

// Profile is a person that can be discovered and contacted.
type Profile struct {
	ID           string    `json:"id" mapstructure:"id"`
	Name         string    `json:"name" mapstructure:"name"`
	Email        string    `json:"email" mapstructure:"email"`
	Skills       []string  `json:"skills" mapstructure:"skills"`
	Bio          string    `json:"bio" mapstructure:"bio"`
	AvailableFor []string  `json:"available_for" mapstructure:"available_for"`
	CreatedAt    time.Time `json:"created_at" mapstructure:"-"`
	UpdatedAt    time.Time `json:"updated_at" mapstructure:"-"`
}

// MeetingRequest asks a profile for an appointment, quote, or meeting.
type MeetingRequest struct {
	ID             string    `json:"id"`
	ProfileID      string    `json:"profile_id"`
	RequesterName  string    `json:"requester_name"`
	RequesterEmail string    `json:"requester_email"`
	Message        string    `json:"message"`
	PreferredTime  string    `json:"preferred_time,omitempty"`
	RequestType    string    `json:"request_type"`
	Status         string    `json:"status"`
	SenderUserID   string    `json:"sender_user_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Query filters profile search. Q matches name or bio; Skills matches any.
type Query struct {
	Q      string
	Skills []string
}

// ParseSkills splits a comma separated skill list.
func ParseSkills(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Store persists profiles and meeting requests.
type Store interface {
	Create(ctx context.Context, p Profile) (Profile, error)
	Get(ctx context.Context, id string) (Profile, error)
	List(ctx context.Context) ([]Profile, error)
	Search(ctx context.Context, q Query) ([]Profile, error)
	CreateRequest(ctx context.Context, r MeetingRequest) (MeetingRequest, error)
	ListRequests(ctx context.Context, profileID string) ([]MeetingRequest, error)
}

func validateProfile(p Profile) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("profile name is required")
	}
	if strings.TrimSpace(p.Email) == "" {
		return errors.New("profile email is required")
	}
	return nil
}

func validateRequest(r MeetingRequest) error {
	switch r.RequestType {
	case RequestAppointment, RequestQuote, RequestMeeting:
	default:
		return fmt.Errorf("request_type must be one of %s, %s, %s", RequestAppointment, RequestQuote, RequestMeeting)
	}
	if strings.TrimSpace(r.ProfileID) == "" {
		return errors.New("profile_id is required")
	}
	if strings.TrimSpace(r.RequesterName) == "" {
		return errors.New("requester_name is required")
	}
	if strings.TrimSpace(r.RequesterEmail) == "" {
		return errors.New("requester_email is required")
	}
	return nil
}

func matches(p Profile, q Query) bool {
	if needle := strings.ToLower(strings.TrimSpace(q.Q)); needle != "" {
		if !strings.Contains(strings.ToLower(p.Name), needle) && !strings.Contains(strings.ToLower(p.Bio), needle) {
			return false
		}
	}
	if len(q.Skills) == 0 {
		return true
	}
	for _, want := range q.Skills {
		want = strings.ToLower(strings.TrimSpace(want))
		for _, have := range p.Skills {
			if strings.ToLower(have) == want {
				return true
			}
		}
	}
	return false
}
