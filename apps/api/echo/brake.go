package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/ozolsdev/examticket/core/brake"
)

type brakeApi struct {
	service  brake.ServiceInterface
	validate *validator.Validate
}

func registerBrakeAPI(g *echo.Group, svc brake.ServiceInterface, validate *validator.Validate) {
	api := brakeApi{service: svc, validate: validate}

	bg := g.Group("/brake")
	bg.POST("", api.brakeToggle)
	bg.GET("/status", api.brakeStatus)
}

// brakeRequest drives both transitions: isBreakActive true starts a pause,
// false releases whatever pause the class still has armed.
type brakeRequest struct {
	IsBreakActive bool   `json:"isBreakActive"`
	ExamName      string `json:"examName" validate:"required"`
	ClassName     string `json:"className" validate:"required"`
	DocumentID    string `json:"documentId"`
	StudentUUID   string `json:"studentUUID"`
	BrakeMinutes  string `json:"brakeMinutes" validate:"required_with=IsBreakActive,omitempty,numeric"`
	StartTime     string `json:"startTime" validate:"required_with=IsBreakActive,omitempty,hhmm"`
	EndTime       string `json:"endTime" validate:"required_with=IsBreakActive,omitempty,hhmm"`
}

func (api *brakeApi) brakeToggle(ctx echo.Context) error {
	data := new(brakeRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	if !data.IsBreakActive {
		if err := api.service.Release(ctx.Request().Context(), data.ExamName, data.ClassName); err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, echo.Map{"isBreakActive": false})
	}

	rec, err := api.service.Start(ctx.Request().Context(), brake.StartRequest{
		ExamName:     data.ExamName,
		ClassName:    data.ClassName,
		DocumentID:   data.DocumentID,
		StudentUUID:  data.StudentUUID,
		BrakeMinutes: data.BrakeMinutes,
		StartTime:    data.StartTime,
		EndTime:      data.EndTime,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *brakeApi) brakeStatus(ctx echo.Context) error {
	q := new(brakeStatusQuery)
	if err := q.Bind(ctx); err != nil {
		return err
	}
	if err := api.validate.Struct(q); err != nil {
		return err
	}

	status, err := api.service.Status(ctx.Request().Context(), q.StudentUUID, q.DocumentID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, status)
}
