package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ventionteams/medfast-credentials/internal/auth/domain"
	"github.com/ventionteams/medfast-credentials/internal/auth/revocation"
	"github.com/ventionteams/medfast-credentials/internal/common/clock"
	"github.com/ventionteams/medfast-credentials/internal/common/constants"
	commoncrypto "github.com/ventionteams/medfast-credentials/internal/common/crypto"
	"github.com/ventionteams/medfast-credentials/internal/common/logger"
)

const revokedMarker = "revoked"

type accessClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AccessTokenAuthority signs, verifies and revokes HS256 access tokens.
// The subject of every token is the owner's e-mail.
type AccessTokenAuthority struct {
	signingKey  []byte
	accessTTL   time.Duration
	revoked     revocation.Cache
	idGenerator commoncrypto.IDGenerator
	clock       clock.Clock
	log         *logger.Logger
}

func NewAccessTokenAuthority(
	signingKey string,
	accessTTL time.Duration,
	revoked revocation.Cache,
	idGenerator commoncrypto.IDGenerator,
	clock clock.Clock,
	log *logger.Logger,
) (*AccessTokenAuthority, error) {
	if len(signingKey) < constants.SigningKeyMinBytes {
		return nil, ErrWeakSigningKey
	}
	return &AccessTokenAuthority{
		signingKey:  []byte(signingKey),
		accessTTL:   accessTTL,
		revoked:     revoked,
		idGenerator: idGenerator,
		clock:       clock,
		log:         log,
	}, nil
}

func (a *AccessTokenAuthority) AccessTTL() time.Duration {
	return a.accessTTL
}

func (a *AccessTokenAuthority) Issue(user domain.User) (string, error) {
	jti, err := a.idGenerator.NewID()
	if err != nil {
		return "", err
	}

	now := a.clock.Now()
	claims := accessClaims{
		UserID: string(user.ID),
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(a.expiresAt(now)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.signingKey)
	if err != nil {
		return "", err
	}

	incrementAccessTokensIssued()
	return token, nil
}

// expiresAt rounds a positive lifetime up to the next whole second, since
// exp is encoded in seconds and truncation would cut the lifetime short.
func (a *AccessTokenAuthority) expiresAt(now time.Time) time.Time {
	exp := now.Add(a.accessTTL)
	if a.accessTTL <= 0 {
		return exp
	}
	if whole := exp.Truncate(time.Second); whole.Before(exp) {
		return whole.Add(time.Second)
	}
	return exp
}

// ValidateAccess verifies signature, expiry and revocation. A revocation
// cache failure rejects the token.
func (a *AccessTokenAuthority) ValidateAccess(ctx context.Context, tokenString string) (domain.AccessClaims, error) {
	incrementJWTValidations()

	claims, err := a.parse(tokenString, true)
	if err != nil {
		if errors.Is(err, ErrAccessTokenExpired) {
			incrementJWTValidationsFailed("expired")
		} else {
			incrementJWTValidationsFailed("malformed")
		}
		return domain.AccessClaims{}, err
	}

	revoked, err := a.IsBlacklisted(ctx, tokenString)
	if err != nil {
		incrementJWTValidationsFailed("revocation_unavailable")
		return domain.AccessClaims{}, err
	}
	if revoked {
		incrementJWTValidationsFailed("revoked")
		return domain.AccessClaims{}, ErrAccessTokenRevoked
	}

	return claims, nil
}

// Validate is the boolean form of ValidateAccess that additionally requires
// the subject to equal expectedSubject.
func (a *AccessTokenAuthority) Validate(ctx context.Context, tokenString, expectedSubject string) bool {
	claims, err := a.ValidateAccess(ctx, tokenString)
	if err != nil {
		return false
	}
	if claims.Email != expectedSubject {
		incrementJWTValidationsFailed("subject_mismatch")
		return false
	}
	return true
}

// ExtractSubject returns the subject of a correctly signed token, expired
// or not.
func (a *AccessTokenAuthority) ExtractSubject(tokenString string) (string, error) {
	claims, err := a.ExtractClaims(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Email, nil
}

func (a *AccessTokenAuthority) ExtractClaims(tokenString string) (domain.AccessClaims, error) {
	return a.parse(tokenString, false)
}

// Blacklist keeps the token in the revocation cache for the rest of its
// lifetime. Tokens that are already past expiry or unreadable are kept for
// a full access TTL.
func (a *AccessTokenAuthority) Blacklist(ctx context.Context, tokenString string) error {
	ttl := a.accessTTL
	if claims, err := a.parse(tokenString, false); err == nil {
		if remaining := claims.ExpiresAt.Sub(a.clock.Now()); remaining > 0 {
			ttl = remaining
		}
	}
	if ttl < time.Second {
		ttl = time.Second
	}

	if err := a.revoked.Put(ctx, tokenString, revokedMarker, ttl); err != nil {
		a.log.WithFields(ctx, logger.Fields{
			"action": "blacklist_access_token_failed",
		}).Errorf("blacklist access token failed: %v", err)
		return ErrRevocationUnavailable.WithCause(err)
	}

	incrementAccessTokensRevoked()
	return nil
}

func (a *AccessTokenAuthority) IsBlacklisted(ctx context.Context, tokenString string) (bool, error) {
	incrementJWTRevokedChecks()

	_, found, err := a.revoked.Get(ctx, tokenString)
	if err != nil {
		a.log.WithFields(ctx, logger.Fields{
			"action": "revocation_lookup_failed",
		}).Errorf("revocation lookup failed: %v", err)
		return false, ErrRevocationUnavailable.WithCause(err)
	}
	return found, nil
}

func (a *AccessTokenAuthority) parse(tokenString string, checkExpiry bool) (domain.AccessClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.clock.Now),
	}
	if checkExpiry {
		opts = append(opts, jwt.WithExpirationRequired())
	} else {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	var claims accessClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return a.signingKey, nil
	}, opts...)
	if err != nil {
		if checkExpiry && errors.Is(err, jwt.ErrTokenExpired) {
			return domain.AccessClaims{}, ErrAccessTokenExpired
		}
		return domain.AccessClaims{}, ErrMalformedToken.WithCause(err)
	}

	if claims.Subject == "" || claims.UserID == "" || claims.ExpiresAt == nil {
		return domain.AccessClaims{}, ErrMalformedToken
	}

	out := domain.AccessClaims{
		UserID:    domain.UserID(claims.UserID),
		Email:     claims.Subject,
		Role:      domain.Role(claims.Role),
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
