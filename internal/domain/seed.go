package domain

import (
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Sample data used to initialize empty local collections. Each function
// returns a fresh slice so callers can mutate the result freely.

func SeedAuthors() []Author {
	return []Author{
		{ID: 1, Name: "Harper Lee", Biography: "American novelist known for To Kill a Mockingbird.", BirthDate: "1926-04-28"},
		{ID: 2, Name: "George Orwell", Biography: "English novelist, essayist and critic.", BirthDate: "1903-06-25"},
		{ID: 3, Name: "F. Scott Fitzgerald", Biography: "American novelist of the Jazz Age.", BirthDate: "1896-09-24"},
	}
}

func SeedCategories() []Category {
	return []Category{
		{ID: 1, Name: "Fiction", Description: "Narrative literature created from the imagination"},
		{ID: 2, Name: "Dystopian", Description: "Fiction set in dehumanized, frightened societies"},
		{ID: 3, Name: "Classic", Description: "Works of lasting literary merit"},
	}
}

func SeedPublishers() []Publisher {
	return []Publisher{
		{ID: 1, Name: "HarperCollins", Location: "New York, NY", ContactNumber: "+1 212 207 7000"},
		{ID: 2, Name: "Secker & Warburg", Location: "London, UK", ContactNumber: "+44 20 7840 8400"},
		{ID: 3, Name: "Scribner", Location: "New York, NY", ContactNumber: "+1 212 698 7000"},
	}
}

func SeedBooks() []Book {
	return []Book{
		{ID: 1, Title: "To Kill a Mockingbird", ISBN: "9780061120084", AuthorID: 1, CategoryID: 1, PublisherID: 1,
			AuthorName: "Harper Lee", CategoryName: "Fiction", PublisherName: "HarperCollins"},
		{ID: 2, Title: "1984", ISBN: "9780451524935", AuthorID: 2, CategoryID: 2, PublisherID: 2,
			AuthorName: "George Orwell", CategoryName: "Dystopian", PublisherName: "Secker & Warburg"},
		{ID: 3, Title: "The Great Gatsby", ISBN: "9780743273565", AuthorID: 3, CategoryID: 3, PublisherID: 3,
			AuthorName: "F. Scott Fitzgerald", CategoryName: "Classic", PublisherName: "Scribner"},
	}
}

func SeedReviews() []Review {
	return []Review{
		{ID: 1, BookID: 2, BookTitle: "1984", Rating: 5, Comment: "Bleak and brilliant.",
			ReviewerName: "admin", CreatedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{ID: 2, BookID: 1, BookTitle: "To Kill a Mockingbird", Rating: 4, Comment: "Still essential reading.",
			ReviewerName: "user", CreatedAt: time.Date(2024, 2, 3, 18, 5, 0, 0, time.UTC)},
	}
}

var (
	seedUsersOnce sync.Once
	seedUsers     []User
)

// SeedUsers returns the built-in accounts. Password hashes are computed once
// per process; the plaintexts are admin/Admin@123 and user/User@123.
func SeedUsers() []User {
	seedUsersOnce.Do(func() {
		seedUsers = []User{
			{ID: 1, Username: "admin", Email: "admin@example.com", FullName: "System Administrator",
				Role: "Admin", PasswordHash: mustHash("Admin@123")},
			{ID: 2, Username: "user", Email: "user@example.com", FullName: "Regular User",
				Role: "User", PasswordHash: mustHash("User@123")},
		}
	})
	out := make([]User, len(seedUsers))
	copy(out, seedUsers)
	return out
}

func mustHash(password string) string {
	hash, err := HashPassword(password)
	if err != nil {
		panic(err)
	}
	return hash
}

// HashPassword hashes a password with bcrypt for the local users collection.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
