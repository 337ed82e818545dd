package entities

import (
	"time"

	"github.com/google/uuid"
)

type Condition string

const (
	ConditionNew  Condition = "New"
	ConditionGood Condition = "Good"
	ConditionBad  Condition = "Bad"
)

// ConditionNames lists the declared enum names for input validation.
func ConditionNames() []string {
	return []string{
		string(ConditionNew),
		string(ConditionGood),
		string(ConditionBad),
	}
}

// Copy is one physical instance of a book. CopyNumber is unique within the
// owning book and assigned sequentially on creation.
type Copy struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	CopyNumber      int         `gorm:"index:idx_copies_book_number" json:"copy_number"`
	ShelfNumber     int         `json:"shelf_number"`
	IsLost          bool        `gorm:"default:false" json:"is_lost"`
	Condition       Condition   `gorm:"size:10" json:"condition"`
	AcquiredAt      time.Time   `json:"acquired_at"`
	LastInspectedAt *time.Time  `json:"last_inspected_at,omitempty"`
	BookID          uuid.UUID   `gorm:"type:uuid;index:idx_copies_book_number" json:"book_id"`
	Book            *Book       `gorm:"foreignKey:BookID" json:"-"`
	Borrowings      []Borrowing `gorm:"foreignKey:CopyID" json:"-"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func (c Copy) PrimaryKey() uuid.UUID { return c.ID }
