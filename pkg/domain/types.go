package domain

import "time"

type VerificationStatus string

const (
	VerificationPending   VerificationStatus = "pending"
	VerificationVerified  VerificationStatus = "verified"
	VerificationExpired   VerificationStatus = "expired"
	VerificationCancelled VerificationStatus = "cancelled"
)

// Terminal reports whether no further transition can leave this status.
func (s VerificationStatus) Terminal() bool {
	switch s {
	case VerificationVerified, VerificationExpired, VerificationCancelled:
		return true
	default:
		return false
	}
}

type UserRole string

const (
	RoleMember UserRole = "member"
	RoleAdmin  UserRole = "admin"
)

type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// Topic is a discussion subject decisions attach to.
type Topic struct {
	ID          int        `json:"id"`
	Description string     `json:"description"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// Decision is a council resolution on a topic. StartDate and EndDate travel
// as ISO-8601 instants pinned to midday; see app.ToWireDate.
type Decision struct {
	ID          int        `json:"id"`
	Description string     `json:"description"`
	TopicID     int        `json:"topicId"`
	StartDate   string     `json:"startDate"`
	EndDate     string     `json:"endDate"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// CouncilEntry links a partner (by dni) to a decision. The two foreign keys
// are immutable once the entry exists.
type CouncilEntry struct {
	ID         int        `json:"id"`
	PartnerDNI string     `json:"dni"`
	DecisionID int        `json:"decisionId"`
	Notes      string     `json:"notes,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

type Partner struct {
	DNI   string `json:"dni"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// VerificationRequest tracks a pending email-ownership confirmation.
type VerificationRequest struct {
	Email       string             `json:"email"`
	Status      VerificationStatus `json:"status"`
	Attempts    int                `json:"attempts"`
	MaxAttempts int                `json:"maxAttempts"`
	ExpiresAt   time.Time          `json:"expiresAt"`
	CreatedAt   time.Time          `json:"createdAt"`
}
