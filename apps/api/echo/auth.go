package echoapi

import (
	"context"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/jifunze/jifunze/core"
	"github.com/jifunze/jifunze/core/user"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	contextTokenKey     = "userToken"
	contextPrincipalKey = "principal"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	TokenType string `json:"token_type"`
	Email     string `json:"email,omitempty"`
}

type authenticator struct {
	conf      *core.Config
	svc       user.ServiceInterface
	jwtConfig middleware.JWTConfig
}

func newAuthenticator(conf *core.Config, svc user.ServiceInterface) *authenticator {
	return &authenticator{
		conf: conf,
		svc:  svc,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
	}
}

// GetUserClaims returns the claims of a `tokenType` token for `usr`.
func GetUserClaims(usr user.User, tokenType string, conf *core.Config) *Claims {
	now := time.Now()
	delta := conf.Server.JWTExpirationDelta
	if tokenType == TokenTypeRefresh {
		delta = conf.Server.JWTRefreshExpirationDelta
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   strconv.Itoa(usr.ID),
			ExpiresAt: now.Add(delta).Unix(),
			IssuedAt:  now.Unix(),
		},
		TokenType: tokenType,
		Email:     usr.Email,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims, conf *core.Config) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// tokenPair issues a fresh access and refresh token for `usr`.
func (a *authenticator) tokenPair(usr user.User) (TokenResponse, error) {
	access, err := GenerateToken(GetUserClaims(usr, TokenTypeAccess, a.conf), a.conf)
	if err != nil {
		return TokenResponse{}, err
	}
	refresh, err := GenerateToken(GetUserClaims(usr, TokenTypeRefresh, a.conf), a.conf)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{Access: access, Refresh: refresh}, nil
}

func (a *authenticator) authenticate(ctx context.Context, email, pwd string) (user.User, error) {
	usr, err := a.svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errAuthenticationFailed
		}
		return user.User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return user.User{}, errAuthenticationFailed
	}
	if !usr.IsActive {
		return user.User{}, errAccountDeactivated
	}
	usr, err = a.svc.SetLastLogin(ctx, usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

// refresh trades a valid refresh token for a new access token.
func (a *authenticator) refresh(ctx context.Context, refreshToken string) (string, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(refreshToken, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != middleware.AlgorithmHS256 {
			return nil, errors.Errorf("unexpected jwt signing method=%v", t.Header["alg"])
		}
		return a.jwtConfig.SigningKey, nil
	})
	if err != nil || claims.TokenType != TokenTypeRefresh {
		return "", errInvalidToken
	}

	usr, err := a.userOf(ctx, *claims)
	if err != nil {
		return "", err
	}
	if !usr.IsActive {
		return "", errAccountDeactivated
	}
	return GenerateToken(GetUserClaims(usr, TokenTypeAccess, a.conf), a.conf)
}

func (a *authenticator) userOf(ctx context.Context, claims Claims) (user.User, error) {
	id, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return user.User{}, errInvalidToken
	}
	usr, err := a.svc.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errInvalidToken
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	return usr, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getPrincipal returns the caller resolved by principalMiddleware, or user.Anonymous.
func getPrincipal(ctx echo.Context) user.Principal {
	if p, ok := ctx.Get(contextPrincipalKey).(user.Principal); ok {
		return p
	}
	return user.Anonymous
}
