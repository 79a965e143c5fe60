package entities

import "time"

// LessonProgress tracks how far the user got through a learning module.
type LessonProgress struct {
	LessonID     string    `gorm:"primaryKey;size:100" json:"lesson_id"`
	Progress     float64   `gorm:"not null;default:0" json:"progress"`
	Completed    bool      `gorm:"not null;default:false" json:"completed"`
	Score        *float64  `json:"score,omitempty"`
	LastAccessed time.Time `gorm:"index;not null" json:"last_accessed"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}

func (LessonProgress) Collection() Collection {
	return CollectionLessons
}

func (l LessonProgress) SearchFields() []string {
	return []string{l.LessonID}
}
