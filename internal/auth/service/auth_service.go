package service

import (
	"context"
	"errors"
	"time"

	"github.com/ventionteams/medfast-credentials/internal/auth/domain"
	authrepo "github.com/ventionteams/medfast-credentials/internal/auth/repository"
	"github.com/ventionteams/medfast-credentials/internal/common/clock"
	commoncrypto "github.com/ventionteams/medfast-credentials/internal/common/crypto"
	"github.com/ventionteams/medfast-credentials/internal/common/logger"
	"github.com/ventionteams/medfast-credentials/internal/common/resilience"
	"github.com/ventionteams/medfast-credentials/internal/notification"
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// AuthService is the credential lifecycle engine exposed to transport and
// scheduling layers.
type AuthService struct {
	users               authrepo.UserRepository
	tokens              *AccessTokenAuthority
	refresh             *RefreshLedger
	ephemeral           *EphemeralTokenAuthority
	policy              *CredentialPolicy
	delivery            *DeliveryCoordinator
	hasher              commoncrypto.PasswordHasher
	idGenerator         commoncrypto.IDGenerator
	validator           CredentialValidator
	breaker             *resilience.CircuitBreaker
	clock               clock.Clock
	verificationBaseURL string
	log                 *logger.Logger
}

func NewAuthService(
	users authrepo.UserRepository,
	tokens *AccessTokenAuthority,
	refresh *RefreshLedger,
	ephemeral *EphemeralTokenAuthority,
	policy *CredentialPolicy,
	delivery *DeliveryCoordinator,
	hasher commoncrypto.PasswordHasher,
	idGenerator commoncrypto.IDGenerator,
	breaker *resilience.CircuitBreaker,
	clock clock.Clock,
	verificationBaseURL string,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		users:               users,
		tokens:              tokens,
		refresh:             refresh,
		ephemeral:           ephemeral,
		policy:              policy,
		delivery:            delivery,
		hasher:              hasher,
		idGenerator:         idGenerator,
		validator:           NewCredentialValidator(),
		breaker:             breaker,
		clock:               clock,
		verificationBaseURL: verificationBaseURL,
		log:                 log,
	}
}

func (s *AuthService) IssueTokenPair(ctx context.Context, user domain.User) (TokenPair, error) {
	accessToken, err := s.tokens.Issue(user)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "issue_token_pair_access_failed",
		}).Errorf("issue token pair failed: %v", err)
		return TokenPair{}, err
	}

	refreshToken, err := s.refresh.Issue(ctx, user)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken.RawToken,
		AccessTTL:    s.tokens.AccessTTL(),
		RefreshTTL:   s.refresh.RefreshTTL(),
	}, nil
}

func (s *AuthService) ValidateAccess(ctx context.Context, token string) (domain.AccessClaims, error) {
	claims, err := s.tokens.ValidateAccess(ctx, token)
	if err != nil {
		recordDomainError(err)
		return domain.AccessClaims{}, err
	}
	return claims, nil
}

// Validate reports whether token is a live access token issued to subject.
func (s *AuthService) Validate(ctx context.Context, token, subject string) bool {
	return s.tokens.Validate(ctx, token, subject)
}

func (s *AuthService) Blacklist(ctx context.Context, token string) error {
	return s.tokens.Blacklist(ctx, token)
}

func (s *AuthService) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return s.tokens.IsBlacklisted(ctx, token)
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	result, err := s.refresh.Refresh(ctx, refreshToken)
	if err != nil {
		recordDomainError(err)
		return RefreshResult{}, err
	}
	return result, nil
}

// Logout revokes the presented access token and every refresh token of its
// owner. Expired access tokens are accepted as long as they are well formed.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.tokens.ExtractClaims(accessToken)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "logout_malformed_token",
		}).Warn("logout failed: malformed token")
		recordDomainError(err)
		return err
	}

	if err := s.tokens.Blacklist(ctx, accessToken); err != nil {
		recordDomainError(err)
		return err
	}

	if err := s.refresh.DeleteAllForUser(ctx, claims.UserID); err != nil {
		return err
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(claims.UserID),
		"action":  "logout_success",
	}).Info("logout success")
	return nil
}

func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (domain.User, error) {
	s.log.WithFields(ctx, logger.Fields{
		"email":  req.Email,
		"action": "sign_up_attempt",
	}).Info("sign up attempt")

	if err := s.validator.Validate(req); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"email":  req.Email,
			"action": "sign_up_validation_failed",
		}).Warnf("sign up validation failed: %v", err)
		recordDomainError(err)
		return domain.User{}, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"email":  req.Email,
			"action": "sign_up_hash_failed",
		}).Errorf("sign up failed: password hash error: %v", err)
		return domain.User{}, err
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           domain.UserID(id),
		Email:        req.Email,
		PasswordHash: hash,
		Enabled:      false,
		Role:         req.Role,
		CreatedAt:    s.clock.Now(),
	}

	err = callDB(ctx, s.breaker, func(ctx context.Context) error {
		return s.users.Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, authrepo.ErrEmailAlreadyExists) {
			s.log.WithFields(ctx, logger.Fields{
				"email":  req.Email,
				"action": "sign_up_email_exists",
			}).Warn("sign up failed: already exists")
			recordDomainError(ErrEmailTaken)
			return domain.User{}, ErrEmailTaken
		}
		s.log.WithFields(ctx, logger.Fields{
			"email":  req.Email,
			"action": "sign_up_create_failed",
		}).Errorf("sign up failed: %v", err)
		return domain.User{}, err
	}

	name := req.Name
	if name == "" {
		name = req.Email
	}
	if err := s.sendVerification(ctx, user, name); err != nil {
		// The account stays; the caller can request another verification mail.
		return user, err
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(user.ID),
		"action":  "sign_up_success",
	}).Info("sign up success")
	return user, nil
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (TokenPair, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, authrepo.ErrUserNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"email":  email,
				"action": "sign_in_user_not_found",
			}).Warn("sign in failed: user not found")
			recordDomainError(ErrInvalidCredentials)
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "sign_in_invalid_password",
		}).Warn("sign in failed: invalid password")
		recordDomainError(ErrInvalidCredentials)
		return TokenPair{}, ErrInvalidCredentials
	}

	if !user.Enabled {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "sign_in_not_verified",
		}).Warn("sign in failed: e-mail not verified")
		recordDomainError(ErrUserNotVerified)
		return TokenPair{}, ErrUserNotVerified
	}

	pair, err := s.IssueTokenPair(ctx, user)
	if err != nil {
		return TokenPair{}, err
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(user.ID),
		"action":  "sign_in_success",
	}).Info("sign in success")
	return pair, nil
}

// IssueVerification sends a fresh verification link. Earlier links stay
// valid until they expire.
func (s *AuthService) IssueVerification(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Enabled {
		recordDomainError(ErrUserAlreadyVerified)
		return ErrUserAlreadyVerified
	}
	return s.sendVerification(ctx, user, user.Email)
}

// ConsumeVerification checks and burns the presented token before looking
// at the account, so an unknown token never reveals that the address is
// already verified.
func (s *AuthService) ConsumeVerification(ctx context.Context, email, value string) error {
	if err := s.consume(ctx, email, domain.PurposeEmailVerification, value); err != nil {
		return err
	}

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Enabled {
		recordDomainError(ErrUserAlreadyVerified)
		return ErrUserAlreadyVerified
	}

	err = callDB(ctx, s.breaker, func(ctx context.Context) error {
		return s.users.SetEnabled(ctx, user.ID, true)
	})
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "verification_enable_failed",
		}).Errorf("failed to enable user: %v", err)
		return err
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(user.ID),
		"action":  "verification_success",
	}).Info("e-mail verified")
	return nil
}

func (s *AuthService) IssueOtp(ctx context.Context, email string) (string, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	token, err := s.ephemeral.Issue(ctx, user, domain.PurposePasswordReset)
	if err != nil {
		return "", err
	}
	return token.Value, nil
}

func (s *AuthService) ConsumeOtp(ctx context.Context, email, value string) error {
	return s.consume(ctx, email, domain.PurposePasswordReset, value)
}

// SendPasswordReset mails a new one-time code. The mail is not retried.
func (s *AuthService) SendPasswordReset(ctx context.Context, email string) error {
	code, err := s.IssueOtp(ctx, email)
	if err != nil {
		return err
	}
	return s.delivery.SendPasswordReset(ctx, notification.PasswordResetMessage{
		Recipient: email,
		Code:      code,
	})
}

func (s *AuthService) ChangePassword(ctx context.Context, email, current, newPassword string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	err = s.policy.ChangePassword(ctx, user, current, newPassword)
	recordDomainError(err)
	return err
}

func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	err = s.policy.ResetPassword(ctx, user, newPassword)
	recordDomainError(err)
	return err
}

// ResetPasswordWithOtp burns the code before looking at the new password.
func (s *AuthService) ResetPasswordWithOtp(ctx context.Context, email, code, newPassword string) error {
	if err := s.ConsumeOtp(ctx, email, code); err != nil {
		return err
	}
	return s.ResetPassword(ctx, email, newPassword)
}

func (s *AuthService) sendVerification(ctx context.Context, user domain.User, name string) error {
	token, err := s.ephemeral.Issue(ctx, user, domain.PurposeEmailVerification)
	if err != nil {
		return err
	}

	err = s.delivery.SendVerificationWithRetry(ctx, notification.VerificationMessage{
		Recipient: user.Email,
		Name:      name,
		Link:      notification.VerificationURL(s.verificationBaseURL, user.Email, token.Value),
	})
	if err != nil {
		recordDomainError(err)
		return err
	}
	return nil
}

func (s *AuthService) consume(ctx context.Context, email string, purpose domain.Purpose, value string) error {
	outcome, err := s.ephemeral.ValidateAndConsume(ctx, email, purpose, value)
	if err != nil {
		return err
	}

	switch outcome {
	case domain.OutcomeConsumed:
		return nil
	case domain.OutcomeExpired:
		recordDomainError(ErrTokenExpired)
		return ErrTokenExpired
	default:
		recordDomainError(ErrTokenNotFound)
		return ErrTokenNotFound
	}
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	err := callDB(ctx, s.breaker, func(ctx context.Context) error {
		var err error
		user, err = s.users.FindByEmail(ctx, email)
		return err
	})
	return user, err
}
