package entity

import "time"

type User struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"not null;uniqueIndex" json:"email"`
	FirstName string    `gorm:"not null" json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}
