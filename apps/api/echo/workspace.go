package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/audit"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/core/workspace"
)

var staffRoles = []session.Role{session.RoleOwner, session.RoleAdmin}

type workspaceApi struct {
	validate *validator.Validate
}

func registerWorkspaceAPI(g *echo.Group, pipe *Pipeline, validate *validator.Validate) {
	api := workspaceApi{validate: validate}

	// public catalog
	g.GET("/catalog", pipe.HandlePublic(Endpoint{Resource: "catalog", Action: audit.ActionRead}, api.catalog))

	sg := g.Group("/students")
	sg.GET("", pipe.Handle(Endpoint{Resource: "students", Action: audit.ActionRead, Roles: staffRoles}, api.queryStudents))
	sg.POST("", pipe.Handle(Endpoint{Resource: "students", Action: audit.ActionCreate, Roles: staffRoles}, api.createStudent))
	sg.GET("/:id", pipe.Handle(Endpoint{Resource: "students", Action: audit.ActionRead, Roles: staffRoles}, api.retrieveStudent))

	cg := g.Group("/courses")
	cg.GET("", pipe.Handle(Endpoint{Resource: "courses", Action: audit.ActionRead}, api.queryCourses))
	cg.POST("", pipe.Handle(Endpoint{Resource: "courses", Action: audit.ActionCreate, Roles: staffRoles}, api.createCourse))

	g.POST("/exams", pipe.Handle(Endpoint{Resource: "exams", Action: audit.ActionCreate, Roles: staffRoles}, api.createExam))

	rg := g.Group("/retakes")
	rg.POST("", pipe.Handle(Endpoint{Resource: "retakes", Action: audit.ActionCreate, Roles: staffRoles}, api.createRetake))
	rg.GET("", pipe.Handle(Endpoint{Resource: "retakes", Action: audit.ActionRead, Roles: []session.Role{session.RoleStudent}}, api.queryMyRetakes))
}

// Handlers

func (api *workspaceApi) catalog(ctx *Context) (*Response, error) {
	courses, err := ctx.Store.QueryCatalog(ctx.Request().Context())
	if err != nil {
		return nil, errors.Wrap(err, "querying catalog")
	}
	if courses == nil {
		courses = []workspace.Course{}
	}
	return &Response{Data: courses}, nil
}

func (api *workspaceApi) queryStudents(ctx *Context) (*Response, error) {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := ctx.Store.QueryStudents(ctx.Request().Context(), ordering.Orderings...)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []workspace.Student{}
	}
	return &Response{Data: students}, nil
}

func (api *workspaceApi) createStudent(ctx *Context) (*Response, error) {
	var data workspace.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return nil, errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return nil, err
	}

	st, err := ctx.Store.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return nil, notFoundOr(err, "creating student")
	}
	return &Response{Status: http.StatusCreated, Data: st}, nil
}

func (api *workspaceApi) retrieveStudent(ctx *Context) (*Response, error) {
	st, err := ctx.Store.GetStudentByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return nil, notFoundOr(err, "finding student by ID")
	}
	return &Response{Data: st}, nil
}

func (api *workspaceApi) queryCourses(ctx *Context) (*Response, error) {
	courses, err := ctx.Store.QueryCourses(ctx.Request().Context())
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []workspace.Course{}
	}
	return &Response{Data: courses}, nil
}

func (api *workspaceApi) createCourse(ctx *Context) (*Response, error) {
	var data workspace.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return nil, errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return nil, err
	}

	course, err := ctx.Store.CreateCourse(ctx.Request().Context(), data)
	if err != nil {
		return nil, errors.Wrap(err, "creating course")
	}
	return &Response{Status: http.StatusCreated, Data: course}, nil
}

func (api *workspaceApi) createExam(ctx *Context) (*Response, error) {
	var data workspace.NewExam
	if err := ctx.Bind(&data); err != nil {
		return nil, errors.Wrap(err, "binding to NewExam")
	}
	if err := data.Validate(api.validate); err != nil {
		return nil, err
	}

	exam, err := ctx.Store.CreateExam(ctx.Request().Context(), data)
	if err != nil {
		return nil, notFoundOr(err, "creating exam")
	}
	return &Response{Status: http.StatusCreated, Data: exam}, nil
}

func (api *workspaceApi) createRetake(ctx *Context) (*Response, error) {
	var data workspace.NewRetake
	if err := ctx.Bind(&data); err != nil {
		return nil, errors.Wrap(err, "binding to NewRetake")
	}
	if err := data.Validate(api.validate); err != nil {
		return nil, err
	}

	retake, err := ctx.Store.CreateRetake(ctx.Request().Context(), data)
	if err != nil {
		return nil, notFoundOr(err, "creating retake")
	}
	ctx.Audit.Info("retake scheduled for student " + retake.StudentID)
	return &Response{Status: http.StatusCreated, Data: retake}, nil
}

func (api *workspaceApi) queryMyRetakes(ctx *Context) (*Response, error) {
	retakes, err := ctx.Store.QueryRetakesForUser(ctx.Request().Context(), ctx.Session.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "querying retakes")
	}
	if retakes == nil {
		retakes = []workspace.Retake{}
	}
	return &Response{Data: retakes}, nil
}

// notFoundOr maps a workspace lookup miss to a 404 business error and wraps
// anything else as a fault.
func notFoundOr(err error, msg string) error {
	if errors.Cause(err) == workspace.ErrNotFound {
		return core.NewNotFoundError(workspace.ErrNotFound)
	}
	return errors.Wrap(err, msg)
}
