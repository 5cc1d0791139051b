package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jifunze/jifunze/core/user"
)

// memberApi serves the instructors or the students, depending on its role.
type memberApi struct {
	role     user.Role
	svc      user.ServiceInterface
	validate *validator.Validate
}

func registerMemberAPI(g *echo.Group, authed []echo.MiddlewareFunc, role user.Role, deps ServerDeps) {
	api := memberApi{
		role:     role,
		svc:      deps.UserSvc,
		validate: deps.Validate,
	}

	// un-authed endpoints
	g.POST("/register", api.register)

	// admin endpoints
	ag := g.Group("", append(authed, adminMiddleware())...)
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id/activate", api.activate)
	ag.PUT("/:id/deactivate", api.deactivate)
	ag.DELETE("/:id/delete", api.destroy)
}

// Handlers

func (api *memberApi) register(ctx echo.Context) error {
	var data user.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	mbr, err := api.svc.Register(ctx.Request().Context(), api.role, data)
	if err != nil {
		return errors.Wrapf(err, "registering %s", api.role)
	}
	return ctx.JSON(http.StatusCreated, mbr)
}

func (api *memberApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.Member{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	members, err := api.svc.QueryMembers(ctx.Request().Context(), api.role, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrapf(err, "querying %ss", api.role)
	}
	if members == nil {
		members = []user.Member{}
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *memberApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	mbr, err := api.svc.GetMember(ctx.Request().Context(), api.role, id)
	if err != nil {
		return errors.Wrapf(err, "finding %s", api.role)
	}
	return ctx.JSON(http.StatusOK, mbr)
}

func (api *memberApi) activate(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	mbr, err := api.svc.Activate(ctx.Request().Context(), api.role, id)
	if err != nil {
		return errors.Wrapf(err, "activating %s", api.role)
	}
	return ctx.JSON(http.StatusOK, mbr)
}

func (api *memberApi) deactivate(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	mbr, err := api.svc.Deactivate(ctx.Request().Context(), api.role, id)
	if err != nil {
		return errors.Wrapf(err, "deactivating %s", api.role)
	}
	return ctx.JSON(http.StatusOK, mbr)
}

func (api *memberApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteMember(ctx.Request().Context(), api.role, id); err != nil {
		return errors.Wrapf(err, "deleting %s", api.role)
	}
	return ctx.NoContent(http.StatusNoContent)
}
