package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"member-faucet/internal/model"
)

type RegisterService interface {
	Register(ctx context.Context, submitter, bypassKey string, req *model.RegisterRequest) (*model.RegisterResult, error)
	Status(ctx context.Context) (*model.Status, error)
}

// Register handles POST /register. The connection is held open until the
// pipeline reaches a terminal outcome.
func Register(service RegisterService) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := &model.RegisterRequest{}
		if err := c.Bind(req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{"error": "InvalidRequestBody"})
		}

		result, err := service.Register(c.Request().Context(), c.RealIP(), bearerToken(c), req)
		if err != nil {
			var rejection *model.PipelineError
			if errors.As(err, &rejection) {
				return c.JSON(rejection.Status, rejection.Body())
			}
			return c.JSON(http.StatusInternalServerError,
				map[string]interface{}{"error": model.ReasonInternalServerError})
		}
		return c.JSON(http.StatusOK, result)
	}
}

// Status handles GET /status: 200 when the node is synced and the faucet
// can afford a sample grant, 503 otherwise.
func Status(service RegisterService) echo.HandlerFunc {
	return func(c echo.Context) error {
		status, err := service.Status(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError,
				map[string]interface{}{"error": model.ReasonInternalServerError})
		}
		code := http.StatusOK
		if !status.IsSynced || !status.HasEnoughFunds {
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, status)
	}
}

// IP handles GET /ip, echoing the caller's perceived address.
func IP() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.String(http.StatusOK, c.RealIP())
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return ""
}
