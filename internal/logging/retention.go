package logging

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/models"
	"gorm.io/gorm"
)

// PurgeBefore deletes system_logs rows older than cutoff.
func PurgeBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}
