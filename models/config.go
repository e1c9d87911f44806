package models

import "gorm.io/gorm"

// GuildConfig holds per-guild settings, currently the announcement channel.
type GuildConfig struct {
	gorm.Model
	GuildID           string `gorm:"not null;uniqueIndex"`
	BirthdayChannelID string
}

// TableName keeps the table name aligned with the document collection name.
func (GuildConfig) TableName() string {
	return "configs"
}
