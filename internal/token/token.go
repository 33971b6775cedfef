package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	// ErrInvalidToken covers malformed, badly signed, expired and
	// wrong-type tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenRevoked means the token's jti is in the denylist.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrTokenStale means a non-fresh token was presented where a fresh
	// login is required.
	ErrTokenStale = errors.New("fresh token required")
)

// Claims is the decoded projection of a token this service issued.
type Claims struct {
	UserID    uint
	JTI       string
	Type      string
	Fresh     bool
	ExpiresAt time.Time
}

// Authority issues and validates the access/refresh token pair. Tokens are
// self-contained; the only shared state is the revocation denylist.
type Authority struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Denylist      Denylist
}

func NewAuthority(accessSecret, refreshSecret []byte, denylist Denylist) *Authority {
	return &Authority{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Denylist:      denylist,
	}
}

type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// IssuePair is called after a successful credential check. The access token
// is fresh: it alone can authorize destructive operations.
func (a *Authority) IssuePair(userID uint) (Pair, error) {
	access, err := a.sign(userID, TypeAccess, true, a.AccessTTL, a.AccessSecret)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := a.sign(userID, TypeRefresh, false, a.RefreshTTL, a.RefreshSecret)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new non-fresh access token.
func (a *Authority) Refresh(ctx context.Context, rawToken string) (string, error) {
	claims, err := a.parse(rawToken, a.RefreshSecret)
	if err != nil {
		return "", err
	}
	if claims.Type != TypeRefresh {
		return "", fmt.Errorf("%w: not a refresh token", ErrInvalidToken)
	}
	if err := a.checkDenylist(ctx, claims.JTI); err != nil {
		return "", err
	}
	return a.sign(claims.UserID, TypeAccess, false, a.AccessTTL, a.AccessSecret)
}

// Revoke puts the token's jti on the denylist. The entry lives until the
// token's natural expiry, after which the expiry check makes it redundant.
// Revoking an already revoked token is not an error.
func (a *Authority) Revoke(ctx context.Context, rawToken string) error {
	claims, err := a.parse(rawToken, a.AccessSecret)
	if err != nil {
		claims, err = a.parse(rawToken, a.RefreshSecret)
		if err != nil {
			return err
		}
	}

	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	return a.Denylist.Insert(ctx, claims.JTI, ttl)
}

// Validate is the single gate in front of every protected operation. Check
// order: signature, expiry, denylist, freshness.
func (a *Authority) Validate(ctx context.Context, rawToken string, requireFresh bool) (uint, error) {
	claims, err := a.parse(rawToken, a.AccessSecret)
	if err != nil {
		return 0, err
	}
	if claims.Type != TypeAccess {
		return 0, fmt.Errorf("%w: not an access token", ErrInvalidToken)
	}
	if err := a.checkDenylist(ctx, claims.JTI); err != nil {
		return 0, err
	}
	if requireFresh && !claims.Fresh {
		return 0, ErrTokenStale
	}
	return claims.UserID, nil
}

func (a *Authority) checkDenylist(ctx context.Context, jti string) error {
	revoked, err := a.Denylist.Contains(ctx, jti)
	if err != nil {
		return fmt.Errorf("denylist lookup: %w", err)
	}
	if revoked {
		return ErrTokenRevoked
	}
	return nil
}

func (a *Authority) sign(userID uint, typ string, fresh bool, ttl time.Duration, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID,
		"jti":   uuid.NewString(),
		"typ":   typ,
		"fresh": fresh,
		"exp":   time.Now().Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func (a *Authority) parse(rawToken string, secret []byte) (*Claims, error) {
	t, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !t.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mc, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: cannot parse claims", ErrInvalidToken)
	}

	sub, ok := mc["sub"].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	jti, ok := mc["jti"].(string)
	if !ok || jti == "" {
		return nil, fmt.Errorf("%w: missing jti", ErrInvalidToken)
	}
	typ, ok := mc["typ"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing type", ErrInvalidToken)
	}
	fresh, _ := mc["fresh"].(bool)
	exp, ok := mc["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: missing expiry", ErrInvalidToken)
	}

	return &Claims{
		UserID:    uint(sub),
		JTI:       jti,
		Type:      typ,
		Fresh:     fresh,
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}
