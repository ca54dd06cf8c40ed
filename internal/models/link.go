package models

import "time"

// Link maps a locally minted token to the short URL a provider returned for
// OriginalURL. Only Visits changes after creation.
type Link struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Token            string    `gorm:"uniqueIndex;size:16;not null" json:"token"`
	OriginalURL      string    `gorm:"not null" json:"originalUrl"`
	ExternalShortURL string    `gorm:"not null" json:"externalShortUrl"`
	Visits           int64     `gorm:"not null;default:0" json:"visits"`
	Owner            string    `gorm:"size:64" json:"owner,omitempty"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// VisitEvent is handed from the redirect path to the visit workers.
type VisitEvent struct {
	LinkID uint
	Token  string
	At     time.Time
}
