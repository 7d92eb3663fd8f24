package repository

import (
	"context"
	"database/sql"
	"time"

	"device_console/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.Operator, error)
}

type ReadingRepo interface {
	Append(ctx context.Context, r models.Reading) (int64, error)
	Latest(ctx context.Context) (models.Reading, bool, error)
	List(ctx context.Context, limit int) ([]models.Reading, error)
	Prune(ctx context.Context, keep int) (int64, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.SessionEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.SessionEvent, error)
}

type Repository struct {
	ReadingRepo ReadingRepo
	EventRepo   EventRepo
	Auth        Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		ReadingRepo: NewReadingSQLite(db),
		EventRepo:   NewEventSQLite(db),
		Auth:        NewOperatorRepository(db),
	}
}
