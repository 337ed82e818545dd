package entities

import (
	"time"

	"github.com/google/uuid"
)

type Language string

const (
	LanguageEnglish Language = "English"
	LanguagePolish  Language = "Polish"
	LanguageGerman  Language = "German"
	LanguageFrench  Language = "French"
	LanguageSpanish Language = "Spanish"
	LanguageOther   Language = "Other"
)

// LanguageNames lists the declared enum names for input validation.
func LanguageNames() []string {
	return []string{
		string(LanguageEnglish),
		string(LanguagePolish),
		string(LanguageGerman),
		string(LanguageFrench),
		string(LanguageSpanish),
		string(LanguageOther),
	}
}

type Author struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName   string     `gorm:"size:100" json:"first_name"`
	LastName    string     `gorm:"index;size:100" json:"last_name"`
	Description string     `gorm:"size:2000" json:"description,omitempty"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Tags        string     `gorm:"size:500" json:"tags,omitempty"` // delimited storage form
	Books       []Book     `gorm:"foreignKey:AuthorID" json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (a Author) PrimaryKey() uuid.UUID { return a.ID }

type Category struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string     `gorm:"index;size:200" json:"name"`
	Description      string     `gorm:"size:2000" json:"description,omitempty"`
	Tags             string     `gorm:"size:500" json:"tags,omitempty"`
	ParentCategoryID *uuid.UUID `gorm:"type:uuid;index" json:"parent_category_id,omitempty"`
	Parent           *Category  `gorm:"foreignKey:ParentCategoryID" json:"-"`
	Books            []Book     `gorm:"foreignKey:CategoryID" json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (c Category) PrimaryKey() uuid.UUID { return c.ID }

type Book struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"index;size:512" json:"title"`
	Description string    `gorm:"size:4000" json:"description,omitempty"`
	ReleaseDate time.Time `json:"release_date"`
	Language    Language  `gorm:"size:20" json:"language"`
	Tags        string    `gorm:"size:500" json:"tags,omitempty"`
	AuthorID    uuid.UUID `gorm:"type:uuid;index" json:"author_id"`
	Author      *Author   `gorm:"foreignKey:AuthorID" json:"-"`
	CategoryID  uuid.UUID `gorm:"type:uuid;index" json:"category_id"`
	Category    *Category `gorm:"foreignKey:CategoryID" json:"-"`
	Copies      []Copy    `gorm:"foreignKey:BookID" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (b Book) PrimaryKey() uuid.UUID { return b.ID }
