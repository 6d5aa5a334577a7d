package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/baywoodland/woodland/internal/auth"
	"github.com/baywoodland/woodland/internal/metrics"
	"github.com/baywoodland/woodland/internal/validate"
)

// TokenIssuer signs visitor session tokens.
type TokenIssuer interface {
	IssueVisitor(userID string) (auth.Token, error)
}

// Service manages visitor accounts.
type Service struct {
	repo    Repository
	tokens  TokenIssuer
	metrics *metrics.Metrics
	logger  *slog.Logger
	cost    int
	// decoy is compared against when the email is unknown so both failure
	// paths take about as long.
	decoy []byte
	now   func() time.Time
}

// NewService creates a new identity service.
func NewService(repo Repository, tokens TokenIssuer, m *metrics.Metrics, logger *slog.Logger) (*Service, error) {
	s := &Service{
		repo:    repo,
		tokens:  tokens,
		metrics: m,
		logger:  logger,
		cost:    bcrypt.DefaultCost,
		now:     time.Now,
	}
	if err := s.setCost(bcrypt.DefaultCost); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) setCost(cost int) error {
	decoy, err := bcrypt.GenerateFromPassword([]byte("woodland-decoy-password"), cost)
	if err != nil {
		return fmt.Errorf("prepare password hashing: %w", err)
	}
	s.cost = cost
	s.decoy = decoy
	return nil
}

// Register validates the sign-up form and creates an account.
func (s *Service) Register(ctx context.Context, reg Registration) (User, error) {
	if err := checkRegistration(reg, s.now()); err != nil {
		s.count("register_invalid")
		return User{}, err
	}
	birthday, _ := time.Parse(BirthdayLayout, reg.Birthday)

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user := User{
		ID:           uuid.New().String(),
		Email:        normalizeEmail(reg.Email),
		PasswordHash: hash,
		Birthday:     birthday,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			s.count("register_duplicate")
		}
		return User{}, err
	}
	s.count("registered")
	s.logger.InfoContext(ctx, "visitor registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and issues a visitor session token.
func (s *Service) Login(ctx context.Context, creds Credentials) (Session, error) {
	if err := validate.Struct(creds); err != nil {
		s.count("login_failed")
		return Session{}, ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, normalizeEmail(creds.Email))
	switch {
	case errors.Is(err, ErrNotFound):
		_ = bcrypt.CompareHashAndPassword(s.decoy, []byte(creds.Password))
		s.count("login_failed")
		return Session{}, ErrInvalidCredentials
	case err != nil:
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		s.count("login_failed")
		return Session{}, ErrInvalidCredentials
	}

	token, err := s.tokens.IssueVisitor(user.ID)
	if err != nil {
		return Session{}, fmt.Errorf("issue session: %w", err)
	}
	s.count("login")
	return Session{
		User:        user.Profile(),
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresIn:   token.ExpiresIn,
	}, nil
}

// Get returns the account with the given id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) count(event string) {
	if s.metrics != nil {
		s.metrics.AccountEvents.WithLabelValues(event).Inc()
	}
}

// checkRegistration applies the sign-up rules and reports every failed field.
func checkRegistration(reg Registration, now time.Time) error {
	fields := map[string]string{}
	var verr *validate.Error
	if err := validate.Struct(reg); errors.As(err, &verr) {
		for _, f := range verr.Fields {
			fields[f.Field] = fieldMessages[f.Field]
		}
	} else if err != nil {
		return err
	}
	if _, failed := fields["birthday"]; !failed {
		if b, _ := time.Parse(BirthdayLayout, reg.Birthday); b.After(now) {
			fields["birthday"] = fieldMessages["birthday"]
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
