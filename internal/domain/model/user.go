package model

import "time"

// UserAccount is a registered user. Accounts are never hard-deleted.
type UserAccount struct {
	ID             string
	Username       string
	Email          string
	FirstName      string
	LastName       string
	PasswordDigest string
	RoleID         int64
	Active         bool
	CreatedAt      time.Time
	LastAccessAt   *time.Time
}

// UserProfile is the read projection of a UserAccount returned to callers.
// It carries the resolved role name and never the password digest.
type UserProfile struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	RoleID       int64
	RoleName     string
	Active       bool
	CreatedAt    time.Time
	LastAccessAt *time.Time
}

// Registration is the input to account creation.
type Registration struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
	RoleID    int64
}

// Role groups users by permission level. Roles are seeded by migrations and
// provisioned by the admin CLI.
type Role struct {
	ID          int64
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
}

// NewUserProfile projects account onto a profile with the given role name.
func NewUserProfile(account UserAccount, roleName string) UserProfile {
	return UserProfile{
		ID:           account.ID,
		Username:     account.Username,
		Email:        account.Email,
		FirstName:    account.FirstName,
		LastName:     account.LastName,
		RoleID:       account.RoleID,
		RoleName:     roleName,
		Active:       account.Active,
		CreatedAt:    account.CreatedAt,
		LastAccessAt: account.LastAccessAt,
	}
}
