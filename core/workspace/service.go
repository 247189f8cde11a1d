package workspace

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// ErrNotFound covers any workspace record lookup miss.
var ErrNotFound = errors.New("not found")

type (
	Repository interface {
		CreateStudent(ctx context.Context, ws null.String, st Student) (Student, error)
		QueryStudents(ctx context.Context, ws null.String, ords ...core.DBOrdering) ([]Student, error)
		GetStudentByID(ctx context.Context, ws null.String, id string) (Student, error)

		CreateCourse(ctx context.Context, ws null.String, c Course) (Course, error)
		QueryCourses(ctx context.Context, ws null.String) ([]Course, error)
		GetCourseByID(ctx context.Context, ws null.String, id string) (Course, error)
		// QueryPublishedCourses is unscoped: it backs the public catalog.
		QueryPublishedCourses(ctx context.Context) ([]Course, error)

		CreateExam(ctx context.Context, ws null.String, e Exam) (Exam, error)
		GetExamByID(ctx context.Context, ws null.String, id string) (Exam, error)

		CreateRetake(ctx context.Context, ws null.String, r Retake) (Retake, error)
		QueryRetakesForUser(ctx context.Context, ws null.String, userID string) ([]Retake, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}

	// Handle is a data-access handle bound to one caller's workspace. It is
	// built per request and not shared across requests.
	Handle struct {
		svc *Service
		ws  null.String
	}
)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

// Scoped returns a Handle bound to ws. A null workspace scopes to nothing:
// workspace queries will come back empty rather than leak across tenants.
func (svc *Service) Scoped(ws null.String) *Handle {
	return &Handle{svc: svc, ws: ws}
}

func (h *Handle) Workspace() null.String { return h.ws }

func (h *Handle) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	st := Student{
		ID:        uuid.New().String(),
		Workspace: h.ws.String,
		Name:      ns.Name,
		Email:     ns.Email,
		Phone:     ns.Phone,
		UserID:    null.NewString(ns.UserID, ns.UserID != ""),
		CourseID:  null.NewString(ns.CourseID, ns.CourseID != ""),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ns.CourseID != "" {
		if _, err := h.svc.repo.GetCourseByID(ctx, h.ws, ns.CourseID); err != nil {
			return Student{}, errors.Wrap(err, "checking course")
		}
	}
	return h.svc.repo.CreateStudent(ctx, h.ws, st)
}

func (h *Handle) QueryStudents(ctx context.Context, ords ...core.DBOrdering) ([]Student, error) {
	return h.svc.repo.QueryStudents(ctx, h.ws, ords...)
}

func (h *Handle) GetStudentByID(ctx context.Context, id string) (Student, error) {
	return h.svc.repo.GetStudentByID(ctx, h.ws, id)
}

func (h *Handle) CreateCourse(ctx context.Context, nc NewCourse) (Course, error) {
	c := Course{
		ID:        uuid.New().String(),
		Workspace: h.ws.String,
		Name:      nc.Name,
		Subject:   nc.Subject,
		Published: nc.Published,
		CreatedAt: time.Now().UTC(),
	}
	return h.svc.repo.CreateCourse(ctx, h.ws, c)
}

func (h *Handle) QueryCourses(ctx context.Context) ([]Course, error) {
	return h.svc.repo.QueryCourses(ctx, h.ws)
}

func (h *Handle) CreateExam(ctx context.Context, ne NewExam) (Exam, error) {
	if _, err := h.svc.repo.GetCourseByID(ctx, h.ws, ne.CourseID); err != nil {
		return Exam{}, errors.Wrap(err, "checking course")
	}
	e := Exam{
		ID:        uuid.New().String(),
		Workspace: h.ws.String,
		CourseID:  ne.CourseID,
		Name:      ne.Name,
		HeldOn:    ne.HeldOn,
		CreatedAt: time.Now().UTC(),
	}
	return h.svc.repo.CreateExam(ctx, h.ws, e)
}

// CreateRetake schedules a retake for a student and notifies them by email
// when one is on file.
func (h *Handle) CreateRetake(ctx context.Context, nr NewRetake) (Retake, error) {
	exam, err := h.svc.repo.GetExamByID(ctx, h.ws, nr.ExamID)
	if err != nil {
		return Retake{}, errors.Wrap(err, "checking exam")
	}
	st, err := h.svc.repo.GetStudentByID(ctx, h.ws, nr.StudentID)
	if err != nil {
		return Retake{}, errors.Wrap(err, "checking student")
	}

	r := Retake{
		ID:          uuid.New().String(),
		Workspace:   h.ws.String,
		ExamID:      nr.ExamID,
		StudentID:   nr.StudentID,
		Reason:      nr.Reason,
		ScheduledOn: nr.ScheduledOn,
		CreatedAt:   time.Now().UTC(),
	}
	created, err := h.svc.repo.CreateRetake(ctx, h.ws, r)
	if err != nil {
		return Retake{}, err
	}

	if st.Email != "" {
		h.svc.mailSvc.SendMessages(&core.EmailMessage{
			To:      []mail.Address{{Name: st.Name, Address: st.Email}},
			Subject: "Retake scheduled: " + exam.Name,
			Body: fmt.Sprintf(
				"Hi %s,\n\nA retake for %q has been scheduled on %s.\n",
				st.Name, exam.Name, created.ScheduledOn.Format("Mon, 02 Jan 2006"),
			),
		})
	}
	return created, nil
}

func (h *Handle) QueryRetakesForUser(ctx context.Context, userID string) ([]Retake, error) {
	return h.svc.repo.QueryRetakesForUser(ctx, h.ws, userID)
}

func (h *Handle) QueryCatalog(ctx context.Context) ([]Course, error) {
	return h.svc.repo.QueryPublishedCourses(ctx)
}
