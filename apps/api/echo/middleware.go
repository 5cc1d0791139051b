package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jifunze/jifunze/core"
	"github.com/jifunze/jifunze/core/user"
)

// principalMiddleware resolves the caller once per request. It must run after the JWT middleware.
func principalMiddleware(svc user.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			// a refresh token is not a bearer token
			if claims.TokenType != TokenTypeAccess {
				return errInvalidToken
			}
			id, err := strconv.Atoi(claims.Subject)
			if err != nil {
				return errInvalidToken
			}

			p, err := svc.ResolvePrincipal(ctx.Request().Context(), id)
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					return errInvalidToken
				}
				return errors.Wrap(err, "resolving principal")
			}
			if !p.User.IsActive {
				return errUnauthorized
			}
			ctx.Set(contextPrincipalKey, p)
			return next(ctx)
		}
	}
}

// gate builds a middleware allowing the principals for which `allowed` is true.
func gate(allowed func(p user.Principal) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p := getPrincipal(ctx)
			if p.IsAnonymous() {
				return errUnauthorized
			}
			if !allowed(p) {
				return core.ErrPermissionDenied
			}
			return next(ctx)
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return gate(user.Principal.IsAdmin)
}

func instructorOrAdminMiddleware() echo.MiddlewareFunc {
	return gate(user.Principal.InstructorOrAdmin)
}

func studentOrAdminMiddleware() echo.MiddlewareFunc {
	return gate(user.Principal.StudentOrAdmin)
}
