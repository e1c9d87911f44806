package models

import (
	"time"

	"gorm.io/gorm"
)

// Birthday represents a member's birthday within a single guild.
type Birthday struct {
	gorm.Model
	GuildID string    `gorm:"not null;uniqueIndex:idx_birthdays_guild_user"`
	UserID  string    `gorm:"not null;uniqueIndex:idx_birthdays_guild_user"`
	Date    time.Time `gorm:"column:birthday;not null"`
	Month   uint      `gorm:"not null;index:idx_birthdays_month_day"`
	Day     uint      `gorm:"not null;index:idx_birthdays_month_day"`
}

// NewBirthday builds a birthday record for the given guild member.
func NewBirthday(guildID, userID string, date time.Time) Birthday {
	b := Birthday{GuildID: guildID, UserID: userID}
	b.SetDate(date)
	return b
}

// SetDate replaces the stored date and keeps month and day in sync with it.
func (b *Birthday) SetDate(date time.Time) {
	y, m, d := date.Date()
	b.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	b.Month = uint(m)
	b.Day = uint(d)
}
