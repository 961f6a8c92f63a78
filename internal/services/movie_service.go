package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 50
	firstFilmYear    = 1888
)

type MovieService struct {
	db *gorm.DB
}

func NewMovieService(db *gorm.DB) *MovieService {
	return &MovieService{db: db}
}

// NormalizePage clamps page and limit to sane bounds.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// List returns active movies, newest first, optionally filtered by genre.
func (s *MovieService) List(ctx context.Context, page, limit int, genre string) ([]models.Movie, int64, error) {
	page, limit = NormalizePage(page, limit)

	q := s.db.WithContext(ctx).Model(&models.Movie{}).Scopes(activeOnly)
	if genre = strings.TrimSpace(genre); genre != "" {
		q = q.Where("LOWER(genre) = ?", strings.ToLower(genre))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count movies: %w", err)
	}

	var movies []models.Movie
	if err := q.Order("created_at DESC").Scopes(paginate(page, limit)).Find(&movies).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, total, nil
}

// Get returns an active movie with its rating aggregate.
func (s *MovieService) Get(ctx context.Context, id uuid.UUID) (*dto.MovieResponse, error) {
	movie, err := s.activeMovie(ctx, id)
	if err != nil {
		return nil, err
	}

	var agg struct {
		Average float64
		Count   int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Rating{}).
		Select("COALESCE(AVG(score), 0) AS average, COUNT(*) AS count").
		Where("movie_id = ?", id).
		Scan(&agg).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	return &dto.MovieResponse{Movie: *movie, AverageScore: agg.Average, RatingCount: agg.Count}, nil
}

func (s *MovieService) Create(ctx context.Context, req *dto.MovieRequest) (*models.Movie, error) {
	if err := validateMovie(req); err != nil {
		return nil, err
	}
	movie := models.Movie{IsActive: true}
	applyMovie(&movie, req)
	if err := s.db.WithContext(ctx).Create(&movie).Error; err != nil {
		return nil, fmt.Errorf("failed to create movie: %w", err)
	}
	return &movie, nil
}

func (s *MovieService) Update(ctx context.Context, id uuid.UUID, req *dto.MovieRequest) (*models.Movie, error) {
	if err := validateMovie(req); err != nil {
		return nil, err
	}
	movie, err := s.activeMovie(ctx, id)
	if err != nil {
		return nil, err
	}
	applyMovie(movie, req)
	if err := s.db.WithContext(ctx).Save(movie).Error; err != nil {
		return nil, fmt.Errorf("failed to update movie: %w", err)
	}
	return movie, nil
}

// Deactivate hides a movie from listings. Its ratings are kept.
func (s *MovieService) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&models.Movie{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate movie: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: movie", ErrNotFound)
	}
	return nil
}

func (s *MovieService) activeMovie(ctx context.Context, id uuid.UUID) (*models.Movie, error) {
	var movie models.Movie
	err := s.db.WithContext(ctx).Scopes(activeOnly).First(&movie, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: movie", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find movie: %w", err)
	}
	return &movie, nil
}

func applyMovie(m *models.Movie, req *dto.MovieRequest) {
	m.Title = strings.TrimSpace(req.Title)
	m.Description = strings.TrimSpace(req.Description)
	m.Director = strings.TrimSpace(req.Director)
	m.Genre = strings.TrimSpace(req.Genre)
	m.ReleaseYear = req.ReleaseYear
	m.DurationMinutes = req.DurationMinutes
}

func validateMovie(req *dto.MovieRequest) error {
	title := strings.TrimSpace(req.Title)
	if title == "" || len(title) > 255 {
		return fmt.Errorf("%w: title is required and must be at most 255 characters", ErrValidationFailed)
	}
	if len(strings.TrimSpace(req.Genre)) > 50 {
		return fmt.Errorf("%w: genre must be at most 50 characters", ErrValidationFailed)
	}
	if req.ReleaseYear != 0 && (req.ReleaseYear < firstFilmYear || req.ReleaseYear > time.Now().Year()+5) {
		return fmt.Errorf("%w: releaseYear is out of range", ErrValidationFailed)
	}
	if req.DurationMinutes < 0 {
		return fmt.Errorf("%w: durationMinutes cannot be negative", ErrValidationFailed)
	}
	return nil
}
