package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase is money a member spent on groceries for the mess on a given
// day. The amount is pooled across ALL members eating that day when the
// daily cost per meal is derived — whoever buys funds whoever eats.
type Purchase struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Date      time.Time       `gorm:"type:date;not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time

	User *User `gorm:"foreignKey:UserID"`
}
