package domain

import (
	"fmt"
	"time"
)

// Record is the constraint shared by all catalog entities. Every record
// carries an integer id unique within its collection; WithID returns a copy
// with the id replaced, which keeps ids immutable in the hands of callers.
type Record[T any] interface {
	RecordID() int
	WithID(id int) T
}

// Book is a catalog book. AuthorName, CategoryName and PublisherName are
// denormalized display fields filled in by the backend.
type Book struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	ISBN          string `json:"isbn"`
	AuthorID      int    `json:"authorId"`
	CategoryID    int    `json:"categoryId"`
	PublisherID   int    `json:"publisherId"`
	AuthorName    string `json:"authorName,omitempty"`
	CategoryName  string `json:"categoryName,omitempty"`
	PublisherName string `json:"publisherName,omitempty"`
}

func (b Book) RecordID() int { return b.ID }
func (b Book) WithID(id int) Book { b.ID = id; return b }
func (b Book) DisplayTitle() string { return b.Title }

// Author is a book author.
type Author struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Biography string `json:"biography,omitempty"`
	BirthDate string `json:"birthDate,omitempty"`
}

func (a Author) RecordID() int { return a.ID }
func (a Author) WithID(id int) Author { a.ID = id; return a }
func (a Author) DisplayTitle() string { return a.Name }

// Category is a book category.
type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (c Category) RecordID() int { return c.ID }
func (c Category) WithID(id int) Category { c.ID = id; return c }
func (c Category) DisplayTitle() string { return c.Name }

// Publisher is a book publisher.
type Publisher struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Location      string `json:"location"`
	ContactNumber string `json:"contactNumber"`
}

func (p Publisher) RecordID() int { return p.ID }
func (p Publisher) WithID(id int) Publisher { p.ID = id; return p }
func (p Publisher) DisplayTitle() string { return p.Name }

// Review is a reader review of a book. Rating is a 1-5 integer.
type Review struct {
	ID           int       `json:"id"`
	BookID       int       `json:"bookId"`
	BookTitle    string    `json:"bookTitle,omitempty"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	ReviewerName string    `json:"reviewerName"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (r Review) RecordID() int { return r.ID }
func (r Review) WithID(id int) Review { r.ID = id; return r }

// DisplayTitle renders the review as "Title ★★★★" for list views.
func (r Review) DisplayTitle() string {
	stars := r.Rating
	if stars < 0 {
		stars = 0
	}
	if stars > 5 {
		stars = 5
	}
	out := r.BookTitle
	if out == "" {
		out = fmt.Sprintf("book #%d", r.BookID)
	}
	for i := 0; i < stars; i++ {
		out += "★"
	}
	return out
}

// User is an account record. PasswordHash is only ever populated in the
// local users collection; profiles handed to callers have it stripped.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	FullName     string `json:"fullName"`
	Role         string `json:"role"`
	PasswordHash string `json:"passwordHash,omitempty"`
}

func (u User) RecordID() int { return u.ID }
func (u User) WithID(id int) User { u.ID = id; return u }

// Profile returns a copy of the user safe to cache and display.
func (u User) Profile() User {
	u.PasswordHash = ""
	return u
}

// Session is the authenticated user's token pair plus a profile snapshot.
// An empty AccessToken means unauthenticated.
type Session struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
	User         User   `json:"user"`
}

// Credentials are what login takes.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is what register takes.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}
