package entities

import (
	"time"

	"github.com/google/uuid"
)

type Reader struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName  string      `gorm:"size:100" json:"first_name"`
	LastName   string      `gorm:"index;size:100" json:"last_name"`
	CardNumber string      `gorm:"index;size:50" json:"card_number"`
	Email      string      `gorm:"size:255" json:"email,omitempty"`
	Phone      string      `gorm:"size:50" json:"phone,omitempty"`
	IsBanned   bool        `gorm:"default:false" json:"is_banned"`
	Borrowings []Borrowing `gorm:"foreignKey:ReaderID" json:"-"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func (r Reader) PrimaryKey() uuid.UUID { return r.ID }

// Borrowing is one loan of a copy to a reader. A nil ReturnedAt means the
// loan is still open and the copy is out.
type Borrowing struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	StartedAt  time.Time  `gorm:"index" json:"started_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	CopyID     uuid.UUID  `gorm:"type:uuid;index" json:"copy_id"`
	Copy       *Copy      `gorm:"foreignKey:CopyID" json:"-"`
	ReaderID   uuid.UUID  `gorm:"type:uuid;index" json:"reader_id"`
	Reader     *Reader    `gorm:"foreignKey:ReaderID" json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (b Borrowing) PrimaryKey() uuid.UUID { return b.ID }

// IsOpen reports whether the loan has not been returned yet.
func (b Borrowing) IsOpen() bool {
	return b.ReturnedAt == nil
}
