package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"collaborative-codepad/internal/domain"
	"collaborative-codepad/internal/repository"
)

// GormSnapshotRepository is the MySQL-backed implementation of the
// persistence gateway.
type GormSnapshotRepository struct {
	db *gorm.DB
}

// NewGormSnapshotRepository creates a GormSnapshotRepository.
func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	if db == nil {
		panic("database connection cannot be nil for GormSnapshotRepository")
	}
	return &GormSnapshotRepository{db: db}
}

// Get returns the snapshot row for a room.
func (r *GormSnapshotRepository) Get(ctx context.Context, roomID string) (*domain.RoomSnapshot, error) {
	var snapshot domain.RoomSnapshot
	err := r.db.WithContext(ctx).First(&snapshot, "room_id = ?", roomID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("gorm: get snapshot for room %q: %w", roomID, err)
	}
	return &snapshot, nil
}

// Put upserts the snapshot row. The persisted fields are overwritten
// unconditionally; CreatedAt survives from the first insert.
func (r *GormSnapshotRepository) Put(ctx context.Context, snapshot *domain.RoomSnapshot) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "language", "active_users", "updated_at"}),
	}).Create(snapshot).Error
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: put snapshot for room %q: %w", snapshot.RoomID, err)
	}
	return nil
}
