package session

import (
	"time"

	"github.com/keyline-id/keyline-go/pkg/token"
)

// Status mirrors the server-driven session lifecycle. The client never
// invents transitions locally.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusEnded     Status = "ended"
	StatusRemoved   Status = "removed"
	StatusExpired   Status = "expired"
	StatusReplaced  Status = "replaced"
	StatusAbandoned Status = "abandoned"
)

// Actor is the impersonation claim attached to sessions an operator is
// acting in.
type Actor struct {
	Sub string `json:"sub"`
}

// Organization is the slice of the organization resource carried on
// membership records.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Membership links a user to an organization with a role and a
// permission set; authorization checks evaluate against it.
type Membership struct {
	Organization Organization `json:"organization"`
	Role         string       `json:"role"`
	Permissions  []string     `json:"permissions"`
}

// User is the lean user record piggybacked on session payloads.
type User struct {
	ID                      string       `json:"id"`
	OrganizationMemberships []Membership `json:"organization_memberships"`
}

// PublicUserData is the display-safe subset of the owning user.
type PublicUserData struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	ImageURL   string `json:"image_url"`
	Identifier string `json:"identifier"`
}

// JSON is the session wire shape. Timestamps are epoch seconds.
type JSON struct {
	ID                       string          `json:"id"`
	Object                   string          `json:"object"`
	Status                   Status          `json:"status"`
	ExpireAt                 int64           `json:"expire_at"`
	AbandonAt                int64           `json:"abandon_at"`
	LastActiveAt             int64           `json:"last_active_at"`
	CreatedAt                int64           `json:"created_at"`
	UpdatedAt                int64           `json:"updated_at"`
	LastActiveOrganizationID string          `json:"last_active_organization_id"`
	Actor                    *Actor          `json:"actor"`
	User                     *User           `json:"user"`
	PublicUserData           *PublicUserData `json:"public_user_data"`
	LastActiveToken          *token.JSON     `json:"last_active_token"`
}

func epochToTime(seconds int64) time.Time {
	if seconds == 0 {
		return time.Time{}
	}
	return time.Unix(seconds, 0)
}
