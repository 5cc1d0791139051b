package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jifunze/jifunze/core/enrolment"
)

type enrolmentApi struct {
	svc      enrolment.ServiceInterface
	validate *validator.Validate
}

func registerEnrolmentAPI(g *echo.Group, deps ServerDeps) {
	api := enrolmentApi{svc: deps.EnrolmentSvc, validate: deps.Validate}

	g.GET("", api.query)
	g.GET("/:id", api.retrieve)

	learner := studentOrAdminMiddleware()
	g.POST("/create", api.create, learner)
	g.PUT("/:id/edit", api.markProgress, learner)
	g.PATCH("/:id/edit", api.markProgress, learner)
	g.DELETE("/:id/delete", api.destroy, learner)
}

// Handlers

func (api *enrolmentApi) query(ctx echo.Context) error {
	filter := new(enrolment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []enrolment.Enrolment{})
	}
	enrolments, err := api.svc.Query(ctx.Request().Context(), getPrincipal(ctx), filter)
	if err != nil {
		return errors.Wrap(err, "querying enrolments")
	}
	if enrolments == nil {
		enrolments = []enrolment.Enrolment{}
	}
	return ctx.JSON(http.StatusOK, enrolments)
}

func (api *enrolmentApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	e, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding enrolment")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *enrolmentApi) create(ctx echo.Context) error {
	var data enrolment.NewEnrolment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrolment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.Enrol(ctx.Request().Context(), getPrincipal(ctx), data)
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusCreated, e)
}

// markProgress bumps the completed counter by one. Any `completed` value sent by the client is ignored.
//
// The record is looked up by the caller and the `course` field of the body. The :id in the
// path must be the id of that same enrolment, otherwise the response is 404 "Progress record
// not found." even when :id names an existing enrolment.
func (api *enrolmentApi) markProgress(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data enrolment.UpdateEnrolment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEnrolment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.MarkProgress(ctx.Request().Context(), getPrincipal(ctx), id, data)
	if err != nil {
		return errors.Wrap(err, "marking progress")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *enrolmentApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), getPrincipal(ctx), id); err != nil {
		return errors.Wrap(err, "deleting enrolment")
	}
	return ctx.NoContent(http.StatusNoContent)
}
