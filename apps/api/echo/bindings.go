package echoapi

import (
	"github.com/labstack/echo/v4"
)

// studentQuery binds the query-string coordinates of one student slot.
type studentQuery struct {
	DocumentID string `query:"documentId" validate:"required"`
	ClassName  string `query:"className" validate:"required"`
	StudentID  string `query:"studentId" validate:"required"`
}

func (q *studentQuery) Bind(ctx echo.Context) error {
	return ctx.Bind(q)
}

// brakeStatusQuery identifies the student a monitor asks break status for.
type brakeStatusQuery struct {
	StudentUUID string `query:"studentUUID" validate:"required"`
	DocumentID  string `query:"documentId" validate:"required"`
}

func (q *brakeStatusQuery) Bind(ctx echo.Context) error {
	return ctx.Bind(q)
}
