package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/nkarimian/cardlab/internal/command"
)

func commandHandler(d *command.Dispatcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req command.Request
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		resp := d.Dispatch(c.Request().Context(), req)
		if !resp.Success {
			log.Warnf("command %s failed: %s", req.Action, resp.Error)
		}

		return c.JSON(resp.HTTPStatus(), resp)
	}
}

func payHandler(d *command.Dispatcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req command.PayRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		resp := d.Pay(c.Request().Context(), req)

		return c.JSON(resp.HTTPStatus(), resp)
	}
}

func payPINHandler(d *command.Dispatcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req command.PayRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		resp := d.PayWithPIN(c.Request().Context(), req)

		return c.JSON(resp.HTTPStatus(), resp)
	}
}
