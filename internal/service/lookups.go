package service

import (
	"context"

	"github.com/noah-isme/sma-assessment-api/internal/models"
)

type termReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Subject, error)
	ListByClassTerm(ctx context.Context, classTermID string) ([]models.Subject, error)
}

type classTermReader interface {
	FindByID(ctx context.Context, id string) (*models.ClassTermDetail, error)
}

type studentReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Student, error)
}

type enrollmentReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.StudentClassEnrollment, error)
	ListActiveByClassTerm(ctx context.Context, classTermID string) ([]models.EnrolledStudent, error)
}

type teacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}
