package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jifunze/jifunze/core"
	"github.com/jifunze/jifunze/core/user"
)

type accountApi struct {
	auth     *authenticator
	svc      user.ServiceInterface
	validate *validator.Validate
	logger   core.Logger
}

func registerAccountAPI(g *echo.Group, authed []echo.MiddlewareFunc, auth *authenticator, deps ServerDeps) {
	api := accountApi{
		auth:     auth,
		svc:      deps.UserSvc,
		validate: deps.Validate,
		logger:   deps.Logger,
	}

	// un-authed endpoints
	g.POST("/api/token", api.obtainToken)
	g.POST("/api/token/refresh", api.refreshToken)
	g.POST("/accounts/password-reset", api.resetPassword)
	g.POST("/accounts/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	me := g.Group("/accounts/me", authed...)
	me.GET("", api.me)
	me.PUT("/avatar", api.setAvatar)
}

func (tr *TokenRequest) Validate(validate *validator.Validate) error {
	tr.Email = core.CleanString(tr.Email, true /* lower */)
	return validate.Struct(tr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}

// Handlers

func (api *accountApi) obtainToken(ctx echo.Context) error {
	var data TokenRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TokenRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.auth.authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return err
	}
	tokens, err := api.auth.tokenPair(usr)
	if err != nil {
		return errors.Wrap(err, "generating tokens")
	}
	return ctx.JSON(http.StatusOK, tokens)
}

func (api *accountApi) refreshToken(ctx echo.Context) error {
	var data TokenRefreshRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TokenRefreshRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	access, err := api.auth.refresh(ctx.Request().Context(), data.Refresh)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Access: access})
}

func (api *accountApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || core.IsNotFound(err)) {
		// do not return errors to attackers
		api.logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *accountApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *accountApi) me(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, getPrincipal(ctx).User)
}

func (api *accountApi) setAvatar(ctx echo.Context) error {
	fh, err := ctx.FormFile("avatar")
	if err != nil {
		return core.NewFieldError("avatar", "No file was submitted.")
	}
	file, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening avatar")
	}
	defer func() { _ = file.Close() }()

	usr, err := api.svc.SetAvatar(ctx.Request().Context(), getPrincipal(ctx).User, file, fh.Size, fh.Header.Get("Content-Type"))
	if err != nil {
		return errors.Wrap(err, "setting avatar")
	}
	return ctx.JSON(http.StatusOK, usr)
}
