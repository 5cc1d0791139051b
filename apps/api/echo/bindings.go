package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/jifunze/jifunze/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	ord.Orderings = core.ParseOrdering(ctx.QueryParam(orderingParam))
}

// paramID parses the `:id` path param. Malformed IDs are reported as not found.
func paramID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

type (
	TokenRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	TokenResponse struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh,omitempty"`
	}

	TokenRefreshRequest struct {
		Refresh string `json:"refresh" validate:"required"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)
