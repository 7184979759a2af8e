// Package portfolio holds the content entities a portfolio page is
// built from. Editing happens in the separate portfolio builder; this
// service only reads, so the package provides the models plus the read
// queries the health score and overview consume.
package portfolio

import (
	"time"

	"gorm.io/gorm"
)

// Profile is the one-per-owner biography section.
type Profile struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"uniqueIndex;not null"`
	FullName  string `gorm:"size:128"`
	Headline  string `gorm:"size:256"`
	Summary   string `gorm:"type:text"`
	Skills    string `gorm:"type:text"` // comma separated
	Location  string `gorm:"size:128"`
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Project is a showcased piece of work.
type Project struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"index;not null"`
	Title       string `gorm:"size:256;not null"`
	Description string `gorm:"type:text"`
	RepoURL     string
	LiveURL     string
	CreatedAt   time.Time
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// Education is a single education history entry.
type Education struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"index;not null"`
	Institution string `gorm:"size:256;not null"`
	Degree      string `gorm:"size:256"`
	StartDate   time.Time
	EndDate     *time.Time
	CreatedAt   time.Time
}

// Achievement is a certification, award or similar.
type Achievement struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;not null"`
	Title     string `gorm:"size:256;not null"`
	Issuer    string `gorm:"size:256"`
	IssueDate *time.Time
	CreatedAt time.Time
}

// ProfileByUser returns the owner's profile, or gorm.ErrRecordNotFound.
func ProfileByUser(db *gorm.DB, userID uint) (*Profile, error) {
	var profile Profile
	if err := db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// ProjectsByUser returns the owner's projects, newest first.
func ProjectsByUser(db *gorm.DB, userID uint) ([]Project, error) {
	var projects []Project
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

// RecentProjectsByUser returns up to limit of the owner's newest projects.
func RecentProjectsByUser(db *gorm.DB, userID uint, limit int) ([]Project, error) {
	var projects []Project
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&projects).Error
	return projects, err
}

// CountEducationByUser counts the owner's education entries.
func CountEducationByUser(db *gorm.DB, userID uint) (int64, error) {
	var count int64
	err := db.Model(&Education{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// CountAchievementsByUser counts the owner's achievements.
func CountAchievementsByUser(db *gorm.DB, userID uint) (int64, error) {
	var count int64
	err := db.Model(&Achievement{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// LastContentUpdate returns the most recent UpdatedAt across the
// owner's profile and projects. The zero time means no content exists.
func LastContentUpdate(db *gorm.DB, userID uint) (time.Time, error) {
	var last time.Time

	profile, err := ProfileByUser(db, userID)
	if err == nil && profile.UpdatedAt.After(last) {
		last = profile.UpdatedAt
	} else if err != nil && err != gorm.ErrRecordNotFound {
		return last, err
	}

	// Fetch the newest project row instead of MAX(updated_at): the bare
	// aggregate column has no decltype, so the sqlite driver hands back
	// a string (or nil) that won't scan into a time.Time.
	var newest Project
	err = db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&newest).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return last, err
	}
	if err == nil && newest.UpdatedAt.After(last) {
		last = newest.UpdatedAt
	}

	return last, nil
}
