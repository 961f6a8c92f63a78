package services

import (
	"context"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MinScore = 1
	MaxScore = 10
)

type RatingService struct {
	db     *gorm.DB
	movies *MovieService
}

func NewRatingService(db *gorm.DB, movies *MovieService) *RatingService {
	return &RatingService{db: db, movies: movies}
}

func (s *RatingService) ListForMovie(ctx context.Context, movieID uuid.UUID, page, limit int) ([]models.Rating, int64, error) {
	if _, err := s.movies.activeMovie(ctx, movieID); err != nil {
		return nil, 0, err
	}
	page, limit = NormalizePage(page, limit)

	q := s.db.WithContext(ctx).Model(&models.Rating{}).Where("movie_id = ?", movieID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count ratings: %w", err)
	}
	var ratings []models.Rating
	if err := q.Order("updated_at DESC").Scopes(paginate(page, limit)).Find(&ratings).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list ratings: %w", err)
	}
	return ratings, total, nil
}

// Upsert creates or replaces the caller's rating of an active movie.
func (s *RatingService) Upsert(ctx context.Context, userID, movieID uuid.UUID, req *dto.RatingRequest) (*models.Rating, error) {
	if req.Score < MinScore || req.Score > MaxScore {
		return nil, fmt.Errorf("%w: score must be between %d and %d", ErrValidationFailed, MinScore, MaxScore)
	}
	if _, err := s.movies.activeMovie(ctx, movieID); err != nil {
		return nil, err
	}

	rating := models.Rating{UserID: userID, MovieID: movieID, Score: req.Score, Review: req.Review}
	err := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "review", "updated_at"}),
		}).
		Create(&rating).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save rating: %w", err)
	}

	var saved models.Rating
	if err := s.db.WithContext(ctx).Where("user_id = ? AND movie_id = ?", userID, movieID).First(&saved).Error; err != nil {
		return nil, fmt.Errorf("failed to reload rating: %w", err)
	}
	return &saved, nil
}

func (s *RatingService) Delete(ctx context.Context, userID, movieID uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("user_id = ? AND movie_id = ?", userID, movieID).Delete(&models.Rating{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete rating: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: rating", ErrNotFound)
	}
	return nil
}
