package storage

import (
	"context"
	"fmt"

	"github.com/hperssn/timetable/internal/domain"
)

// Failure reasons reported per item by SubmitBulk.
const (
	ReasonSectionFull       = "Section full"
	ReasonSectionNotFound   = "Section not found"
	ReasonSubjectRegistered = "Subject already registered"
)

type Repository interface {
	SaveSection(ctx context.Context, s domain.Section) error

	LoadCatalog(ctx context.Context) ([]domain.Section, error)

	LoadRegistrations(ctx context.Context, studentID string) ([]domain.Section, error)

	SubmitBulk(ctx context.Context, studentID string, items []domain.RegistrationRequest) (domain.BulkResult, error)

	Close() error
}

// Open returns the repository for driver, "postgres" or "sqlite".
func Open(driver, dsn string) (Repository, error) {
	switch driver {
	case "postgres":
		repo, err := NewPostgresRepository(dsn)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "sqlite", "sqlite3":
		repo, err := NewSQLiteRepository(dsn)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}
