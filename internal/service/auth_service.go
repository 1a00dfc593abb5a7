package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"classsite/internal/auth"
	apperrors "classsite/internal/errors"
	"classsite/internal/metrics"
	"classsite/internal/model"
	"classsite/internal/repository"
)

// DefaultStorageTimeout bounds every storage call made during one auth operation.
const DefaultStorageTimeout = 5 * time.Second

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// AuthService handles authentication operations.
type AuthService interface {
	// Authenticate checks credentials against the lockout ledger and the user store.
	Authenticate(ctx context.Context, account, password string) (*model.User, error)
	// Login authenticates and issues an access token.
	Login(ctx context.Context, account, password string) (*LoginResult, error)
	// Authorize resolves a token to its live user and checks the user holds one of roles.
	// No roles means any authenticated user.
	Authorize(ctx context.Context, token string, roles ...model.Role) (*model.User, error)
	// Logout revokes the token until it expires.
	Logout(ctx context.Context, token string) error
}

// AuthOptions tunes an AuthService.
type AuthOptions struct {
	Policy         model.LockoutPolicy
	StorageTimeout time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

type authService struct {
	users      repository.UserRepository
	ledger     repository.LoginAttemptRepository
	hasher     auth.PasswordHasher
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	log        *logrus.Logger
	metrics    *metrics.Metrics

	policy  model.LockoutPolicy
	timeout time.Duration
	now     func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users repository.UserRepository,
	ledger repository.LoginAttemptRepository,
	hasher auth.PasswordHasher,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	log *logrus.Logger,
	m *metrics.Metrics,
	opts AuthOptions,
) AuthService {
	if opts.Policy.MaxFailures < 1 {
		opts.Policy.MaxFailures = 1
	}
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = DefaultStorageTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &authService{
		users:      users,
		ledger:     ledger,
		hasher:     hasher,
		jwtService: jwtService,
		tokenStore: tokenStore,
		log:        log,
		metrics:    m,
		policy:     opts.Policy,
		timeout:    opts.StorageTimeout,
		now:        opts.Now,
	}
}

func (s *authService) Authenticate(ctx context.Context, account, password string) (*model.User, error) {
	account = strings.TrimSpace(account)
	if account == "" || password == "" {
		s.metrics.Login(metrics.OutcomeInvalid)
		return nil, apperrors.Validation("account and password are required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := s.now()
	log := s.log.WithField("account", account)

	attempt, err := s.ledger.Get(ctx, account)
	if err != nil {
		return nil, s.storageFailure(log, "read login attempts", err)
	}
	if attempt.IsLocked(now) {
		return nil, s.locked(log, attempt.RetryAfter(now))
	}

	user, err := s.users.FindByAccount(ctx, account)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, s.storageFailure(log, "find user", err)
	}

	var verified bool
	if user != nil {
		verified = s.hasher.Verify(password, user.PasswordHash)
	} else {
		// Same bcrypt cost as a real check.
		s.hasher.Verify(password, s.placeholderHash())
	}
	if !verified {
		return nil, s.recordFailure(ctx, log, account, now)
	}

	if !user.Enabled {
		s.metrics.Login(metrics.OutcomeRejected)
		log.WithField("outcome", "disabled").Info("login.rejected")
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.ledger.Reset(ctx, account, now); err != nil {
		return nil, s.storageFailure(log, "reset login attempts", err)
	}

	s.metrics.Login(metrics.OutcomeSuccess)
	log.WithFields(logrus.Fields{"outcome": "success", "user_id": user.ID}).Info("login.success")
	return user, nil
}

func (s *authService) Login(ctx context.Context, account, password string) (*LoginResult, error) {
	user, err := s.Authenticate(ctx, account, password)
	if err != nil {
		return nil, err
	}

	token, claims, err := s.jwtService.Issue(user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
	}, nil
}

func (s *authService) Authorize(ctx context.Context, token string, roles ...model.Role) (*model.User, error) {
	claims, err := s.jwtService.Parse(token)
	if err != nil {
		s.metrics.Guard(metrics.DecisionUnauthenticated)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.tokenStore != nil && s.tokenStore.IsRevoked(ctx, claims.ID) {
		s.metrics.Guard(metrics.DecisionUnauthenticated)
		return nil, apperrors.ErrUnauthenticated
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, apperrors.ErrNotFound) {
		s.metrics.Guard(metrics.DecisionUnauthenticated)
		return nil, apperrors.ErrUnauthenticated
	}
	if err != nil {
		s.metrics.Guard(metrics.DecisionError)
		s.log.WithError(err).WithField("user_id", claims.UserID).Error("guard.storage_error")
		return nil, asStorage("find user", err)
	}

	if !user.Enabled {
		s.metrics.Guard(metrics.DecisionUnauthenticated)
		return nil, apperrors.ErrUnauthenticated
	}

	if len(roles) > 0 && !user.HasRole(roles...) {
		s.metrics.Guard(metrics.DecisionForbidden)
		required := make([]string, len(roles))
		for i, r := range roles {
			required[i] = string(r)
		}
		return nil, &apperrors.ForbiddenError{Required: required}
	}

	s.metrics.Guard(metrics.DecisionAuthorized)
	return user, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := s.jwtService.Parse(token)
	if err != nil {
		// Nothing valid to revoke.
		return nil
	}
	if s.tokenStore == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if err := s.tokenStore.Revoke(ctx, claims.ID, ttl); err != nil {
		return asStorage("revoke token", err)
	}
	s.log.WithField("user_id", claims.UserID).Info("logout")
	return nil
}

// recordFailure counts a failed attempt and decides the reply.
func (s *authService) recordFailure(ctx context.Context, log *logrus.Entry, account string, now time.Time) error {
	res, err := s.ledger.RecordFailure(ctx, account, now, s.policy)
	if err != nil {
		return s.storageFailure(log, "record login failure", err)
	}

	if !res.Counted {
		// Another attempt locked the account after our ledger read.
		return s.locked(log, res.Attempt.RetryAfter(now))
	}

	if res.Locked {
		s.metrics.Lockout()
		log.WithFields(logrus.Fields{
			"locked_until": res.Attempt.LockedUntil,
			"lockouts":     res.Attempt.Lockouts,
		}).Warn("login.lockout")
	}

	s.metrics.Login(metrics.OutcomeRejected)
	log.WithFields(logrus.Fields{"outcome": "rejected", "failed_count": res.Attempt.FailedCount}).Info("login.rejected")
	return apperrors.ErrInvalidCredentials
}

func (s *authService) locked(log *logrus.Entry, retryAfter time.Duration) error {
	s.metrics.Login(metrics.OutcomeLocked)
	log.WithFields(logrus.Fields{"outcome": "locked", "retry_after": retryAfter.String()}).Warn("login.locked")
	return &apperrors.LockedError{RetryAfter: retryAfter}
}

func (s *authService) storageFailure(log *logrus.Entry, op string, err error) error {
	s.metrics.Login(metrics.OutcomeError)
	log.WithError(err).Error("login.storage_error")
	return asStorage(op, err)
}

// placeholderHash is verified against when the account does not exist.
func (s *authService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("placeholder-password")
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func asStorage(op string, err error) error {
	if errors.Is(err, apperrors.ErrStorageUnavailable) {
		return err
	}
	return apperrors.Storage(op, err)
}
