package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
	"github.com/ericfisherdev/gatekeep/internal/domain/port/driven"
)

// AuthService orchestrates login, registration and profile lookup. The site
// gate is a precondition enforced by the caller before any method runs.
type AuthService struct {
	users  driven.UserStore
	roles  driven.RoleStore
	tokens *TokenService
	hasher driven.Hasher
	logger *slog.Logger
	now    func() time.Time

	decoyOnce   sync.Once
	decoyDigest string
}

// decoySecret is hashed once so unknown-user logins can pay a full Verify.
const decoySecret = "gatekeep-decoy-credential"

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users driven.UserStore,
	roles driven.RoleStore,
	tokens *TokenService,
	hasher driven.Hasher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		roles:  roles,
		tokens: tokens,
		hasher: hasher,
		logger: logger,
		now:    time.Now,
	}
}

// Login authenticates username/password, stamps the account's last access,
// and issues a bearer token bound to sourceIP. Unknown users, inactive
// accounts and wrong passwords all fail with model.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password, sourceIP string) (model.Session, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return model.Session{}, fmt.Errorf("login lookup: %w", err)
	}

	if user == nil {
		// Spend the verification cost anyway so response time does not
		// reveal whether the username exists.
		s.verifyDecoy(password)
		return model.Session{}, model.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, user.PasswordDigest)
	if err != nil {
		return model.Session{}, fmt.Errorf("verify password for %q: %w", username, err)
	}
	if !ok || !user.Active {
		return model.Session{}, model.ErrInvalidCredentials
	}

	issued, err := s.tokens.Issue(ctx, *user, sourceIP)
	if err != nil {
		return model.Session{}, err
	}

	now := s.now().UTC()
	if err := s.users.TouchLastAccess(ctx, user.ID, now); err != nil {
		return model.Session{}, fmt.Errorf("stamp last access: %w", err)
	}
	user.LastAccessAt = &now

	roleName, err := s.roleName(ctx, user.RoleID)
	if err != nil {
		return model.Session{}, err
	}

	s.logger.Info("user logged in", "user_id", user.ID, "username", user.Username, "ip", sourceIP)

	return model.Session{
		Profile:   model.NewUserProfile(*user, roleName),
		Token:     issued.Value,
		ExpiresAt: issued.ExpiresAt,
	}, nil
}

// Register creates an active account. Username and email conflicts are
// reported separately; the store maps a racing insert onto the same errors.
// Registration does not log the new user in.
func (s *AuthService) Register(ctx context.Context, reg model.Registration) (model.UserProfile, error) {
	taken, err := s.users.UsernameExists(ctx, reg.Username)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return model.UserProfile{}, model.ErrDuplicateUsername
	}

	taken, err = s.users.EmailExists(ctx, reg.Email)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return model.UserProfile{}, model.ErrDuplicateEmail
	}

	role, err := s.roles.GetByID(ctx, reg.RoleID)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("get role %d: %w", reg.RoleID, err)
	}
	if role == nil || !role.Active {
		return model.UserProfile{}, fmt.Errorf("%w: %d", model.ErrInvalidRole, reg.RoleID)
	}

	digest, err := s.hasher.Hash(reg.Password, nil)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("hash password: %w", err)
	}

	user := model.UserAccount{
		ID:             uuid.NewString(),
		Username:       reg.Username,
		Email:          reg.Email,
		FirstName:      reg.FirstName,
		LastName:       reg.LastName,
		PasswordDigest: digest,
		RoleID:         reg.RoleID,
		Active:         true,
		CreatedAt:      s.now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.UserProfile{}, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)

	return model.NewUserProfile(user, role.Name), nil
}

// LookupByID returns the profile for id, or (nil, nil) if no account exists.
func (s *AuthService) LookupByID(ctx context.Context, id string) (*model.UserProfile, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup user %q: %w", id, err)
	}
	if user == nil {
		return nil, nil
	}

	roleName, err := s.roleName(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}

	profile := model.NewUserProfile(*user, roleName)
	return &profile, nil
}

// Logout revokes the presented token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// verifyDecoy runs the primary scheme's Verify against a digest that no
// password matches.
func (s *AuthService) verifyDecoy(password string) {
	s.decoyOnce.Do(func() {
		digest, err := s.hasher.Hash(decoySecret, nil)
		if err != nil {
			s.logger.Error("decoy digest unavailable", "error", err)
			return
		}
		s.decoyDigest = digest
	})
	if s.decoyDigest != "" {
		_, _ = s.hasher.Verify(password, s.decoyDigest)
	}
}

func (s *AuthService) roleName(ctx context.Context, roleID int64) (string, error) {
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return "", fmt.Errorf("get role %d: %w", roleID, err)
	}
	if role == nil {
		return "", nil
	}
	return role.Name, nil
}
