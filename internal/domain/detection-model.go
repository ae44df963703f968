package domain

import "time"

// Detection keeps a record of each processed upload so results stay
// retrievable after the response is gone.
type Detection struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	UserID       *uint  `gorm:"index" json:"user_id,omitempty"`
	ImageURL     string `json:"image_url"`
	AnnotatedURL string `json:"annotated_url"`
	Results      string `gorm:"type:text" json:"results"`

	CreatedAt time.Time `json:"created_at"`
}
