package types

// MemberStatus is the subscription state of a member at lookup time.
type MemberStatus string

const (
	StatusActive       MemberStatus = "active"
	StatusExpiringSoon MemberStatus = "expiring_soon"
	StatusExpired      MemberStatus = "expired"
)

// Member is a read-only snapshot owned by the external member store.
type Member struct {
	ID      int64        `json:"id" db:"id"`
	Name    string       `json:"name" db:"name"`
	Phone   string       `json:"phone" db:"phone"`
	Status  MemberStatus `json:"status" db:"status"`
	Expiry  string       `json:"expiry" db:"expiry"` // date string, e.g. "2026-03-01"
	Package string       `json:"package" db:"package"`
}
