package models

import "time"

// Provider is a registered third-party shortener and its credential.
type Provider struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	APIURL    string    `gorm:"not null" json:"apiUrl"`
	APIToken  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TokenHint returns a masked form of the credential that is safe to display.
func (p Provider) TokenHint() string {
	if len(p.APIToken) <= 4 {
		return "****"
	}
	return "****" + p.APIToken[len(p.APIToken)-4:]
}
