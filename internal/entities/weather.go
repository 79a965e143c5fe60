package entities

import "time"

// CachedWeather holds the last weather payload fetched for a location label.
type CachedWeather struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Location string    `gorm:"size:200;not null;uniqueIndex" json:"location"`
	Payload  string    `gorm:"type:text" json:"payload"`
	CachedAt time.Time `gorm:"index;not null" json:"cached_at"`
}

func (CachedWeather) TableName() string {
	return "cached_weather"
}

func (CachedWeather) Collection() Collection {
	return CollectionWeather
}

func (w CachedWeather) SearchFields() []string {
	return []string{w.Location}
}
