package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/ozolsdev/examticket/core/exam"
)

type examApi struct {
	service  exam.ServiceInterface
	validate *validator.Validate
}

func registerExamAPI(g *echo.Group, svc exam.ServiceInterface, validate *validator.Validate) {
	api := examApi{service: svc, validate: validate}

	eg := g.Group("/exams")
	eg.POST("", api.examCreate)
	eg.GET("/names", api.examQueryNames)
	eg.POST("/select", api.examSelect)
	eg.GET("/current-selection", api.examCurrentSelection)
	eg.GET("/:id", api.examRetrieve)
	eg.GET("/:id/classes", api.examRetrieveClass)

	sg := g.Group("/settings")
	sg.GET("/dropdown", api.dropdownRetrieve)
	sg.POST("/dropdown", api.dropdownSave)
	sg.GET("/user-state", api.userStateRetrieve)

	stg := g.Group("/students")
	stg.GET("", api.studentRetrieve)
	stg.POST("/select", api.studentSelect)
}

// requests

type selectRequest struct {
	DocumentID    string `json:"documentId" validate:"required"`
	SelectedClass string `json:"selectedClass" validate:"required"`
}

type dropdownRequest struct {
	SelectedExam  string `json:"selectedExam" validate:"required"`
	SelectedClass string `json:"selectedClass" validate:"required"`
}

type studentSelectRequest struct {
	LastSelectedStudentID string `json:"lastSelectedStudentId" validate:"required"`
	DocumentID            string `json:"documentId" validate:"required"`
	ClassName             string `json:"className" validate:"required"`
}

// Handlers

func (api *examApi) examCreate(ctx echo.Context) error {
	data := new(exam.NewExam)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	doc, err := api.service.CreateOrAppend(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, doc)
}

func (api *examApi) examQueryNames(ctx echo.Context) error {
	names, err := api.service.ExamNames(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, names)
}

func (api *examApi) examRetrieve(ctx echo.Context) error {
	doc, err := api.service.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, doc)
}

func (api *examApi) examRetrieveClass(ctx echo.Context) error {
	rec, err := api.service.ClassRecord(ctx.Request().Context(), ctx.Param("id"), ctx.QueryParam("className"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *examApi) examSelect(ctx echo.Context) error {
	data := new(selectRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	if err := api.service.Select(ctx.Request().Context(), data.DocumentID, data.SelectedClass); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"documentId": data.DocumentID, "selectedClass": data.SelectedClass})
}

func (api *examApi) examCurrentSelection(ctx echo.Context) error {
	sel, err := api.service.CurrentSelection(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sel)
}

func (api *examApi) dropdownRetrieve(ctx echo.Context) error {
	sel, err := api.service.Dropdown(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sel)
}

func (api *examApi) dropdownSave(ctx echo.Context) error {
	data := new(dropdownRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	sel := exam.DropdownSelection{SelectedExam: data.SelectedExam, SelectedClass: data.SelectedClass}
	if err := api.service.SaveDropdown(ctx.Request().Context(), sel); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sel)
}

func (api *examApi) userStateRetrieve(ctx echo.Context) error {
	st, err := api.service.UserState(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *examApi) studentRetrieve(ctx echo.Context) error {
	q := new(studentQuery)
	if err := q.Bind(ctx); err != nil {
		return err
	}
	if err := api.validate.Struct(q); err != nil {
		return err
	}

	st, err := api.service.GetStudent(ctx.Request().Context(), q.DocumentID, q.ClassName, q.StudentID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *examApi) studentSelect(ctx echo.Context) error {
	data := new(studentSelectRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	st := exam.UserState{
		LastSelectedStudentID: data.LastSelectedStudentID,
		DocumentID:            data.DocumentID,
		ClassName:             data.ClassName,
	}
	if err := api.service.SelectStudent(ctx.Request().Context(), st); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}
