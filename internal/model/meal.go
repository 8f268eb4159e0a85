package model

import (
	"time"

	"github.com/google/uuid"
)

// Meal records that a member ate on a given day. At most one record per
// member per calendar day — the composite unique index enforces it at the
// storage layer. The date is immutable once created; records are deletable
// only for non-past dates unless an admin does it.
type Meal struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_meals_user_date"`
	Date        time.Time `gorm:"type:date;not null;uniqueIndex:idx_meals_user_date;index"`
	MealType    string    `gorm:"type:varchar(20);not null;default:'lunch'"` // breakfast | lunch | dinner
	Description *string
	CreatedAt   time.Time

	User *User `gorm:"foreignKey:UserID"`
}
