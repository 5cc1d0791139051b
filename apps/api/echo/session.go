package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jifunze/jifunze/core/videosession"
)

type sessionApi struct {
	svc      videosession.ServiceInterface
	validate *validator.Validate
}

func registerSessionAPI(g *echo.Group, deps ServerDeps) {
	api := sessionApi{svc: deps.SessionSvc, validate: deps.Validate}

	g.GET("", api.query)
	g.GET("/:id", api.retrieve)

	host := instructorOrAdminMiddleware()
	g.POST("/create", api.create, host)
	g.PUT("/:id/edit", api.update, host)
	g.PATCH("/:id/edit", api.update, host)
	g.DELETE("/:id/delete", api.destroy, host)
}

// Handlers

func (api *sessionApi) query(ctx echo.Context) error {
	filter := new(videosession.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []videosession.Session{})
	}
	sessions, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying video sessions")
	}
	if sessions == nil {
		sessions = []videosession.Session{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *sessionApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding video session")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *sessionApi) create(ctx echo.Context) error {
	var data videosession.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), getPrincipal(ctx), data)
	if err != nil {
		return errors.Wrap(err, "scheduling video session")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *sessionApi) update(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data videosession.UpdateSession
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSession")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Update(ctx.Request().Context(), getPrincipal(ctx), id, data)
	if err != nil {
		return errors.Wrap(err, "updating video session")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *sessionApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), getPrincipal(ctx), id); err != nil {
		return errors.Wrap(err, "deleting video session")
	}
	return ctx.NoContent(http.StatusNoContent)
}
