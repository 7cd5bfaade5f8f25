package user

// User represents a user entity in the system.
type User struct {
	ID           int64  // ID is the unique identifier for the user
	Name         string // Name is the display name of the user
	Email        string // Email is the unique email address of the user
	PasswordHash string // PasswordHash is the bcrypt hash of the user's password
	Age          *int32 // Age is optional and may be nil
}
