package model

import "time"

// User is a catalogue member. Friends are never stored on the row.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"size:128;not null;index" json:"email" validate:"notblank,contains=@"`
	Login     string    `gorm:"size:64;not null;index" json:"login" validate:"notblank,nowhitespace"`
	Name      string    `gorm:"size:128" json:"name"`
	Birthday  Date      `gorm:"type:date" json:"birthday" validate:"birthday"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
}
