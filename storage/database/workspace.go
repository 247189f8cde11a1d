package database

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/workspace"
)

// workspaceRepository is the Postgres implementation of workspace.Repository.
// Every scoped query filters on the workspace column; a null workspace
// matches nothing.
type workspaceRepository struct {
	db *sqlx.DB
}

var _ workspace.Repository = (*workspaceRepository)(nil)

func NewWorkspaceRepository(db *sqlx.DB) *workspaceRepository {
	return &workspaceRepository{db: db}
}

var studentOrderFields = map[string]string{
	"name":       "name",
	"created_at": "created_at",
}

func (repo workspaceRepository) CreateStudent(ctx context.Context, ws null.String, st workspace.Student) (workspace.Student, error) {
	if !ws.Valid {
		return workspace.Student{}, errors.New("no workspace scope")
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO students (id, workspace, name, email, phone, user_id, course_id, created_at, updated_at)
		VALUES (:id, :workspace, :name, :email, :phone, :user_id, :course_id, :created_at, :updated_at)`, st)
	if err != nil {
		return workspace.Student{}, wrapErr(err, "inserting student")
	}
	return st, nil
}

func (repo workspaceRepository) QueryStudents(ctx context.Context, ws null.String, ords ...core.DBOrdering) ([]workspace.Student, error) {
	if !ws.Valid {
		return nil, nil
	}

	orderBy := "created_at DESC"
	if clauses := orderClauses(studentOrderFields, ords); len(clauses) > 0 {
		orderBy = strings.Join(clauses, ", ")
	}

	var students []workspace.Student
	err := repo.db.SelectContext(ctx, &students,
		`SELECT * FROM students WHERE workspace = $1 ORDER BY `+orderBy, ws.String)
	return students, wrapErr(err, "querying students")
}

func (repo workspaceRepository) GetStudentByID(ctx context.Context, ws null.String, id string) (workspace.Student, error) {
	var st workspace.Student
	if !ws.Valid {
		return st, workspace.ErrNotFound
	}
	err := repo.db.GetContext(ctx, &st,
		`SELECT * FROM students WHERE workspace = $1 AND id = $2`, ws.String, id)
	if err == sql.ErrNoRows {
		return st, workspace.ErrNotFound
	}
	return st, wrapErr(err, "finding student")
}

func (repo workspaceRepository) CreateCourse(ctx context.Context, ws null.String, c workspace.Course) (workspace.Course, error) {
	if !ws.Valid {
		return workspace.Course{}, errors.New("no workspace scope")
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO courses (id, workspace, name, subject, published, created_at)
		VALUES (:id, :workspace, :name, :subject, :published, :created_at)`, c)
	if err != nil {
		return workspace.Course{}, wrapErr(err, "inserting course")
	}
	return c, nil
}

func (repo workspaceRepository) QueryCourses(ctx context.Context, ws null.String) ([]workspace.Course, error) {
	if !ws.Valid {
		return nil, nil
	}
	var courses []workspace.Course
	err := repo.db.SelectContext(ctx, &courses,
		`SELECT * FROM courses WHERE workspace = $1 ORDER BY created_at DESC`, ws.String)
	return courses, wrapErr(err, "querying courses")
}

func (repo workspaceRepository) GetCourseByID(ctx context.Context, ws null.String, id string) (workspace.Course, error) {
	var c workspace.Course
	if !ws.Valid {
		return c, workspace.ErrNotFound
	}
	err := repo.db.GetContext(ctx, &c,
		`SELECT * FROM courses WHERE workspace = $1 AND id = $2`, ws.String, id)
	if err == sql.ErrNoRows {
		return c, workspace.ErrNotFound
	}
	return c, wrapErr(err, "finding course")
}

func (repo workspaceRepository) QueryPublishedCourses(ctx context.Context) ([]workspace.Course, error) {
	var courses []workspace.Course
	err := repo.db.SelectContext(ctx, &courses,
		`SELECT * FROM courses WHERE published ORDER BY name`)
	return courses, wrapErr(err, "querying published courses")
}

func (repo workspaceRepository) CreateExam(ctx context.Context, ws null.String, e workspace.Exam) (workspace.Exam, error) {
	if !ws.Valid {
		return workspace.Exam{}, errors.New("no workspace scope")
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO exams (id, workspace, course_id, name, held_on, created_at)
		VALUES (:id, :workspace, :course_id, :name, :held_on, :created_at)`, e)
	if err != nil {
		return workspace.Exam{}, wrapErr(err, "inserting exam")
	}
	return e, nil
}

func (repo workspaceRepository) GetExamByID(ctx context.Context, ws null.String, id string) (workspace.Exam, error) {
	var e workspace.Exam
	if !ws.Valid {
		return e, workspace.ErrNotFound
	}
	err := repo.db.GetContext(ctx, &e,
		`SELECT * FROM exams WHERE workspace = $1 AND id = $2`, ws.String, id)
	if err == sql.ErrNoRows {
		return e, workspace.ErrNotFound
	}
	return e, wrapErr(err, "finding exam")
}

func (repo workspaceRepository) CreateRetake(ctx context.Context, ws null.String, r workspace.Retake) (workspace.Retake, error) {
	if !ws.Valid {
		return workspace.Retake{}, errors.New("no workspace scope")
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO retakes (id, workspace, exam_id, student_id, reason, scheduled_on, created_at)
		VALUES (:id, :workspace, :exam_id, :student_id, :reason, :scheduled_on, :created_at)`, r)
	if err != nil {
		return workspace.Retake{}, wrapErr(err, "inserting retake")
	}
	return r, nil
}

func (repo workspaceRepository) QueryRetakesForUser(ctx context.Context, ws null.String, userID string) ([]workspace.Retake, error) {
	if !ws.Valid {
		return nil, nil
	}
	var retakes []workspace.Retake
	err := repo.db.SelectContext(ctx, &retakes, `
		SELECT r.* FROM retakes r
		JOIN students s ON s.id = r.student_id
		WHERE r.workspace = $1 AND s.user_id = $2
		ORDER BY r.scheduled_on`, ws.String, userID)
	return retakes, wrapErr(err, "querying retakes")
}

// wrapErr surfaces a lost database connection as a shutdown signal; anything
// else keeps its context.
func wrapErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Cause(err) == sql.ErrConnDone {
		return core.NewShutdownError(msg + ": database connection is done")
	}
	return errors.Wrap(err, msg)
}

// orderClauses keeps only orderings on allowed fields.
func orderClauses(allowed map[string]string, ords []core.DBOrdering) []string {
	clauses := make([]string, 0, len(ords))
	for _, ord := range ords {
		if col, ok := allowed[ord.Field]; ok {
			clauses = append(clauses, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	return clauses
}
