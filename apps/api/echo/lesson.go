package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jifunze/jifunze/core/course"
)

// lessonApi serves both the lessons and their videos.
type lessonApi struct {
	svc      course.ServiceInterface
	validate *validator.Validate
}

func registerLessonAPI(g *echo.Group, deps ServerDeps) {
	api := lessonApi{svc: deps.CourseSvc, validate: deps.Validate}

	g.GET("", api.queryLessons)
	g.GET("/:id", api.retrieveLesson)

	author := instructorOrAdminMiddleware()
	g.POST("/create", api.createLesson, author)
	g.PUT("/:id/edit", api.updateLesson, author)
	g.PATCH("/:id/edit", api.updateLesson, author)
	g.DELETE("/:id/delete", api.destroyLesson, author)
}

func registerVideoAPI(g *echo.Group, deps ServerDeps) {
	api := lessonApi{svc: deps.CourseSvc, validate: deps.Validate}

	g.GET("", api.queryVideos)
	g.GET("/:id", api.retrieveVideo)

	author := instructorOrAdminMiddleware()
	g.POST("/create", api.createVideo, author)
	g.PUT("/:id/edit", api.updateVideo, author)
	g.PATCH("/:id/edit", api.updateVideo, author)
	g.DELETE("/:id/delete", api.destroyVideo, author)
}

// Lessons

func (api *lessonApi) queryLessons(ctx echo.Context) error {
	filter := new(course.LessonFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Lesson{})
	}
	lessons, err := api.svc.QueryLessons(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying lessons")
	}
	if lessons == nil {
		lessons = []course.Lesson{}
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *lessonApi) retrieveLesson(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	l, err := api.svc.GetLesson(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding lesson")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *lessonApi) createLesson(ctx echo.Context) error {
	var data course.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	l, err := api.svc.CreateLesson(ctx.Request().Context(), getPrincipal(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating lesson")
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (api *lessonApi) updateLesson(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	// UpdateLesson has no course field, so a `course` key in the payload is dropped.
	var data course.UpdateLesson
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLesson")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	l, err := api.svc.UpdateLesson(ctx.Request().Context(), getPrincipal(ctx), id, data)
	if err != nil {
		return errors.Wrap(err, "updating lesson")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *lessonApi) destroyLesson(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteLesson(ctx.Request().Context(), getPrincipal(ctx), id); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Videos

func (api *lessonApi) queryVideos(ctx echo.Context) error {
	filter := new(course.VideoFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.LessonVideo{})
	}
	videos, err := api.svc.QueryVideos(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying lesson videos")
	}
	if videos == nil {
		videos = []course.LessonVideo{}
	}
	return ctx.JSON(http.StatusOK, videos)
}

func (api *lessonApi) retrieveVideo(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	v, err := api.svc.GetVideo(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding lesson video")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *lessonApi) createVideo(ctx echo.Context) error {
	var data course.NewLessonVideo
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLessonVideo")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	v, err := api.svc.CreateVideo(ctx.Request().Context(), getPrincipal(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating lesson video")
	}
	return ctx.JSON(http.StatusCreated, v)
}

func (api *lessonApi) updateVideo(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data course.UpdateLessonVideo
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLessonVideo")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	v, err := api.svc.UpdateVideo(ctx.Request().Context(), getPrincipal(ctx), id, data)
	if err != nil {
		return errors.Wrap(err, "updating lesson video")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *lessonApi) destroyVideo(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteVideo(ctx.Request().Context(), getPrincipal(ctx), id); err != nil {
		return errors.Wrap(err, "deleting lesson video")
	}
	return ctx.NoContent(http.StatusNoContent)
}
