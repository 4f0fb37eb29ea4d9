package astro

import "time"

// Session captures one interactive visit. It holds at most one profile.
type Session struct {
	ID         string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Details    BirthDetails
	Profile    string
	HasProfile bool
	Pending    bool
}
