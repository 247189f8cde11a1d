package inmem

import (
	"context"
	"sort"
	"sync"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/workspace"
)

// Repository is an in-memory workspace.Repository for DEV/TEST.
type Repository struct {
	mu       sync.Mutex
	students map[string]workspace.Student
	courses  map[string]workspace.Course
	exams    map[string]workspace.Exam
	retakes  map[string]workspace.Retake
}

var _ workspace.Repository = (*Repository)(nil)

func NewRepository() *Repository {
	return &Repository{
		students: make(map[string]workspace.Student),
		courses:  make(map[string]workspace.Course),
		exams:    make(map[string]workspace.Exam),
		retakes:  make(map[string]workspace.Retake),
	}
}

func scoped(ws null.String, recordWS string) bool {
	return ws.Valid && ws.String == recordWS
}

func (repo *Repository) CreateStudent(_ context.Context, ws null.String, st workspace.Student) (workspace.Student, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.students[st.ID] = st
	return st, nil
}

func (repo *Repository) QueryStudents(_ context.Context, ws null.String, ords ...core.DBOrdering) ([]workspace.Student, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	var students []workspace.Student
	for _, st := range repo.students {
		if scoped(ws, st.Workspace) {
			students = append(students, st)
		}
	}
	sort.Slice(students, func(i, j int) bool {
		for _, ord := range ords {
			if ord.Field == "name" && students[i].Name != students[j].Name {
				if ord.Ascending {
					return students[i].Name < students[j].Name
				}
				return students[i].Name > students[j].Name
			}
		}
		return students[i].CreatedAt.After(students[j].CreatedAt)
	})
	return students, nil
}

func (repo *Repository) GetStudentByID(_ context.Context, ws null.String, id string) (workspace.Student, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if st, ok := repo.students[id]; ok && scoped(ws, st.Workspace) {
		return st, nil
	}
	return workspace.Student{}, workspace.ErrNotFound
}

func (repo *Repository) CreateCourse(_ context.Context, ws null.String, c workspace.Course) (workspace.Course, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.courses[c.ID] = c
	return c, nil
}

func (repo *Repository) QueryCourses(_ context.Context, ws null.String) ([]workspace.Course, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	var courses []workspace.Course
	for _, c := range repo.courses {
		if scoped(ws, c.Workspace) {
			courses = append(courses, c)
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.After(courses[j].CreatedAt) })
	return courses, nil
}

func (repo *Repository) GetCourseByID(_ context.Context, ws null.String, id string) (workspace.Course, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if c, ok := repo.courses[id]; ok && scoped(ws, c.Workspace) {
		return c, nil
	}
	return workspace.Course{}, workspace.ErrNotFound
}

func (repo *Repository) QueryPublishedCourses(_ context.Context) ([]workspace.Course, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	var courses []workspace.Course
	for _, c := range repo.courses {
		if c.Published {
			courses = append(courses, c)
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Name < courses[j].Name })
	return courses, nil
}

func (repo *Repository) CreateExam(_ context.Context, ws null.String, e workspace.Exam) (workspace.Exam, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.exams[e.ID] = e
	return e, nil
}

func (repo *Repository) GetExamByID(_ context.Context, ws null.String, id string) (workspace.Exam, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if e, ok := repo.exams[id]; ok && scoped(ws, e.Workspace) {
		return e, nil
	}
	return workspace.Exam{}, workspace.ErrNotFound
}

func (repo *Repository) CreateRetake(_ context.Context, ws null.String, r workspace.Retake) (workspace.Retake, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.retakes[r.ID] = r
	return r, nil
}

func (repo *Repository) QueryRetakesForUser(_ context.Context, ws null.String, userID string) ([]workspace.Retake, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	var retakes []workspace.Retake
	for _, r := range repo.retakes {
		if !scoped(ws, r.Workspace) {
			continue
		}
		if st, ok := repo.students[r.StudentID]; ok && st.UserID.Valid && st.UserID.String == userID {
			retakes = append(retakes, r)
		}
	}
	sort.Slice(retakes, func(i, j int) bool { return retakes[i].ScheduledOn.Before(retakes[j].ScheduledOn) })
	return retakes, nil
}
