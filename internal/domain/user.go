package domain

import "time"

type User struct {
	ID        uint      `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u User) Actor() Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}

// CandidateFor reports whether u may be picked as a winner by the jury
// member juryID.
func (u User) CandidateFor(juryID uint) bool {
	return u.ID != juryID && u.Role != RoleJury
}
