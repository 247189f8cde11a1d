package workspace

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

type Student struct {
	ID        string      `json:"id" db:"id"`
	Workspace string      `json:"-" db:"workspace"`
	Name      string      `json:"name" db:"name"`
	Email     string      `json:"email" db:"email"`
	Phone     string      `json:"phone" db:"phone"`
	UserID    null.String `json:"user_id" db:"user_id"` // identity user, once the student can sign in
	CourseID  null.String `json:"course_id" db:"course_id"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"` // UTC
}

type Course struct {
	ID        string    `json:"id" db:"id"`
	Workspace string    `json:"-" db:"workspace"`
	Name      string    `json:"name" db:"name"`
	Subject   string    `json:"subject" db:"subject"`
	Published bool      `json:"published" db:"published"` // listed on the public catalog
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Exam struct {
	ID        string    `json:"id" db:"id"`
	Workspace string    `json:"-" db:"workspace"`
	CourseID  string    `json:"course_id" db:"course_id"`
	Name      string    `json:"name" db:"name"`
	HeldOn    time.Time `json:"held_on" db:"held_on"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Retake struct {
	ID          string    `json:"id" db:"id"`
	Workspace   string    `json:"-" db:"workspace"`
	ExamID      string    `json:"exam_id" db:"exam_id"`
	StudentID   string    `json:"student_id" db:"student_id"`
	Reason      string    `json:"reason" db:"reason"`
	ScheduledOn time.Time `json:"scheduled_on" db:"scheduled_on"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// NewStudent contains information needed to enroll a new Student.
type NewStudent struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,phone_"`
	UserID   string `json:"user_id"`
	CourseID string `json:"course_id"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Phone = core.CleanString(ns.Phone)
	return validate.Struct(ns)
}

type NewCourse struct {
	Name      string `json:"name" validate:"required"`
	Subject   string `json:"subject"`
	Published bool   `json:"published"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Subject = core.CleanString(nc.Subject)
	return validate.Struct(nc)
}

type NewExam struct {
	CourseID string    `json:"course_id" validate:"required"`
	Name     string    `json:"name" validate:"required"`
	HeldOn   time.Time `json:"held_on" validate:"required"`
}

func (ne *NewExam) Validate(validate *validator.Validate) error {
	ne.Name = core.CleanString(ne.Name)
	return validate.Struct(ne)
}

type NewRetake struct {
	ExamID      string    `json:"exam_id" validate:"required"`
	StudentID   string    `json:"student_id" validate:"required"`
	Reason      string    `json:"reason"`
	ScheduledOn time.Time `json:"scheduled_on" validate:"required"`
}

func (nr *NewRetake) Validate(validate *validator.Validate) error {
	nr.Reason = core.CleanString(nr.Reason)
	return validate.Struct(nr)
}
