package domain

// UserTimeLayout is the format of User.CreatedAt.
const UserTimeLayout = "2006-01-02 15:04:05"

// User is an account that owns tickets. Records are created on signup and never
// mutated afterwards.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password"`
	CreatedAt    string `json:"created_at"`
}
