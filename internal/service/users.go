package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/atinyakov/PassKeeper/internal/apperr"
	"github.com/atinyakov/PassKeeper/internal/db"
	"github.com/atinyakov/PassKeeper/internal/models"
	"go.uber.org/zap"
)

// UserStore defines the persistence operations needed by the UserService.
type UserStore interface {
	Insert(ctx context.Context, q db.Querier, u *models.User) error
	GetByID(ctx context.Context, q db.Querier, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, q db.Querier, email string) (*models.User, error)
	List(ctx context.Context, q db.Querier) ([]models.User, error)
	Update(ctx context.Context, q db.Querier, id int64, upd models.UserUpdate, passwordHash *string, now time.Time) (*models.User, error)
	TouchLogin(ctx context.Context, q db.Querier, id int64, now time.Time) error
	Delete(ctx context.Context, q db.Querier, id int64) error
	CreatedBetween(ctx context.Context, q db.Querier, from, to time.Time) ([]models.User, error)
	WithMinSecrets(ctx context.Context, q db.Querier, n int) ([]models.User, error)
	WithLabelSuffix(ctx context.Context, q db.Querier, suffix string) ([]models.User, error)
}

// PasswordHasher hashes and verifies login passwords.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, encoded string) (bool, error)
}

var errInvalidCredentials = errors.New("invalid credentials")

// UserService manages accounts and login.
type UserService struct {
	db     db.Querier
	users  UserStore
	hasher PasswordHasher
	log    *zap.Logger
	now    func() time.Time

	decoyOnce sync.Once
	decoy     string
}

// NewUserService constructs a UserService. A nil log disables logging.
func NewUserService(q db.Querier, users UserStore, hasher PasswordHasher, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{db: q, users: users, hasher: hasher, log: log, now: clock}
}

// Register creates an active account. The password is stored only as a hash.
func (s *UserService) Register(ctx context.Context, in models.NewUser) (*models.User, error) {
	const op = "users.Register"
	switch {
	case strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "":
		return nil, apperr.Msg(apperr.ErrValidation, op, "first and last name are required")
	case !validEmail(in.Email):
		return nil, apperr.Msg(apperr.ErrValidation, op, "invalid email")
	case in.Password == "":
		return nil, apperr.Msg(apperr.ErrValidation, op, "password must not be empty")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	u := &models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
		Active:       true,
	}
	if err := s.users.Insert(ctx, s.db, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks email and password. Every rejection yields the same
// authentication error so callers cannot tell which part was wrong.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	const op = "users.Login"
	u, err := s.users.GetByEmail(ctx, s.db, email)
	if errors.Is(err, apperr.ErrNotFound) {
		// Unknown emails pay the same hashing cost as known ones.
		_, _ = s.hasher.Verify(password, s.decoyHash())
		return nil, apperr.E(apperr.ErrAuth, op, errInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		s.log.Error("stored credential hash is corrupt", zap.Int64("user_id", u.ID), zap.Error(err))
		return nil, apperr.E(apperr.ErrAuth, op, errInvalidCredentials)
	}
	if !ok || !u.Active {
		return nil, apperr.E(apperr.ErrAuth, op, errInvalidCredentials)
	}

	now := s.now()
	if err := s.users.TouchLogin(ctx, s.db, u.ID, now); err != nil {
		return nil, err
	}
	u.LastLogin = &now
	return u, nil
}

// decoyHash returns a hash computed once with the configured parameters.
// Logins for unknown emails verify against it.
func (s *UserService) decoyHash() string {
	s.decoyOnce.Do(func() {
		h, err := s.hasher.Hash("passkeeper-decoy")
		if err != nil {
			s.log.Error("failed to prepare decoy hash", zap.Error(err))
			return
		}
		s.decoy = h
	})
	return s.decoy
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	if id <= 0 {
		return nil, apperr.Msg(apperr.ErrValidation, "users.Get", "user id must be positive")
	}
	return s.users.GetByID(ctx, s.db, id)
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx, s.db)
}

// Update applies a partial update. A new password is hashed before it is stored.
func (s *UserService) Update(ctx context.Context, id int64, upd models.UserUpdate) (*models.User, error) {
	const op = "users.Update"
	switch {
	case id <= 0:
		return nil, apperr.Msg(apperr.ErrValidation, op, "user id must be positive")
	case upd.Email != nil && !validEmail(*upd.Email):
		return nil, apperr.Msg(apperr.ErrValidation, op, "invalid email")
	case upd.Password != nil && *upd.Password == "":
		return nil, apperr.Msg(apperr.ErrValidation, op, "password must not be empty")
	}

	var hash *string
	if upd.Password != nil {
		h, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, err
		}
		hash = &h
	}
	return s.users.Update(ctx, s.db, id, upd, hash, s.now())
}

// Delete removes a user and, by cascade, their secrets, history and links.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperr.Msg(apperr.ErrValidation, "users.Delete", "user id must be positive")
	}
	return s.users.Delete(ctx, s.db, id)
}

// CreatedBetween returns users created within [from, to].
func (s *UserService) CreatedBetween(ctx context.Context, from, to time.Time) ([]models.User, error) {
	if to.Before(from) {
		return nil, apperr.Msg(apperr.ErrValidation, "users.CreatedBetween", "range end precedes start")
	}
	return s.users.CreatedBetween(ctx, s.db, from, to)
}

// WithMinSecrets returns users owning at least n secrets.
func (s *UserService) WithMinSecrets(ctx context.Context, n int) ([]models.User, error) {
	if n < 1 {
		return nil, apperr.Msg(apperr.ErrValidation, "users.WithMinSecrets", "minimum must be positive")
	}
	return s.users.WithMinSecrets(ctx, s.db, n)
}

// WithLabelSuffix returns users owning a secret whose label ends in suffix.
func (s *UserService) WithLabelSuffix(ctx context.Context, suffix string) ([]models.User, error) {
	if suffix == "" {
		return nil, apperr.Msg(apperr.ErrValidation, "users.WithLabelSuffix", "suffix must not be empty")
	}
	return s.users.WithLabelSuffix(ctx, s.db, suffix)
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\n")
}
