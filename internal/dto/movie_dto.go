package dto

import "github.com/ahmetcoskunkizilkaya/movie-backend/internal/models"

type MovieRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Director        string `json:"director"`
	Genre           string `json:"genre"`
	ReleaseYear     int    `json:"releaseYear"`
	DurationMinutes int    `json:"durationMinutes"`
}

type MovieResponse struct {
	models.Movie
	AverageScore float64 `json:"averageScore"`
	RatingCount  int64   `json:"ratingCount"`
}

type RatingRequest struct {
	Score  int    `json:"score"`
	Review string `json:"review"`
}

type PageResponse struct {
	Data  interface{} `json:"data"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}
