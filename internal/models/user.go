package models

import "time"

// User represents any platform account: students, mentors and administrators.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:32;not null;default:student" json:"role"`
	MentorID  *uint     `gorm:"index" json:"mentor_id"`
	Mentor    *User     `gorm:"foreignKey:MentorID" json:"mentor,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	// RoleStudent identifies learner accounts.
	RoleStudent = "student"
	// RoleMentor identifies mentor accounts linked to students.
	RoleMentor = "mentor"
	// RoleAdmin identifies administrator accounts.
	RoleAdmin = "admin"
)

// HasMentor reports whether the user is linked to a mentor.
func (u User) HasMentor() bool {
	return u.MentorID != nil && *u.MentorID != 0
}
