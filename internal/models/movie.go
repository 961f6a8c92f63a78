package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Movie is a catalogue entry. Deleting a movie only deactivates it.
type Movie struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title           string    `gorm:"size:255;not null;index" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	Director        string    `gorm:"size:255" json:"director"`
	Genre           string    `gorm:"size:50;index" json:"genre"`
	ReleaseYear     int       `json:"releaseYear"`
	DurationMinutes int       `json:"durationMinutes"`
	IsActive        bool      `gorm:"not null;index" json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (m *Movie) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Rating is one user's score for one movie.
type Rating struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ratings_user_movie" json:"userId"`
	MovieID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ratings_user_movie;index" json:"movieId"`
	Score     int       `gorm:"not null" json:"score"`
	Review    string    `gorm:"type:text" json:"review,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Movie     Movie     `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE" json:"-"`
}

func (r *Rating) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
