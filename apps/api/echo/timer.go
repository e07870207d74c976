package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/ozolsdev/examticket/core/timer"
)

type timerApi struct {
	service  timer.ServiceInterface
	validate *validator.Validate
}

func registerTimerAPI(g *echo.Group, svc timer.ServiceInterface, validate *validator.Validate) {
	api := timerApi{service: svc, validate: validate}

	tg := g.Group("/timer")
	tg.POST("/start", api.timerStart)
	tg.POST("/stop", api.timerStop)
}

func (api *timerApi) timerStart(ctx echo.Context) error {
	data := new(timer.StartRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	res, err := api.service.Start(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *timerApi) timerStop(ctx echo.Context) error {
	data := new(timer.StopRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	res, err := api.service.Stop(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}
