package library

import "time"

// Role is the coarse permission class the backend assigns to a user.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleLibrarian Role = "librarian"
	RoleMember    Role = "member"
	RoleGuest     Role = "guest"

	// RoleUnset is the initial and logged-out value. It is also what the
	// session holds between a successful login and the authorization
	// round-trip that resolves the real role.
	RoleUnset Role = ""
)

// ParseRole maps a backend role string onto the closed Role set.
// Unknown strings map to RoleUnset so gating stays fail-closed.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleLibrarian, RoleMember, RoleGuest:
		return Role(s)
	}
	return RoleUnset
}

// Category groups books in the catalog.
type Category struct {
	CategoryID   int64  `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Description  string `json:"description"`
}

// Inventory tracks physical stock for a book.
type Inventory struct {
	InventoryID int64  `json:"inventoryId"`
	BookID      int64  `json:"bookId"`
	Quantity    int64  `json:"quantity"`
	Condition   string `json:"condition"`
	Location    string `json:"location"`
}

// Book mirrors a catalog entry as returned by the backend. Books are
// not cached client-side; each screen re-fetches its own list.
type Book struct {
	BookID          int64     `json:"bookId"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Genre           string    `json:"genre"`
	ISBN            string    `json:"isbn"`
	PublicationDate time.Time `json:"publicationDate"`
	AvailableCopies int64     `json:"availableCopies"`
	Status          string    `json:"status"`
	CategoryID      int64     `json:"categoryId"`
	Category        Category  `json:"category"`
	Inventory       Inventory `json:"inventory"`
}

// BookDTO is the payload for adding a book to the catalog.
type BookDTO struct {
	BookID          int64     `json:"bookId,omitempty"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Genre           string    `json:"genre"`
	ISBN            string    `json:"isbn"`
	PublicationDate time.Time `json:"publicationDate"`
	AvailableCopies int64     `json:"availableCopies"`
	Status          string    `json:"status"`
	CategoryID      int64     `json:"categoryId"`
}

// BookRef is the shortened book record nested inside borrow and
// reservation rows.
type BookRef struct {
	BookID int64  `json:"bookId"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// BorrowedBook is one row of the member's borrow history.
type BorrowedBook struct {
	BookID     int64     `json:"bookId"`
	MemberID   int64     `json:"memberId"`
	BorrowDate time.Time `json:"borrowDate"`
	DueDate    time.Time `json:"dueDate"`
	ReturnDate time.Time `json:"returnDate"`
	LateFee    int64     `json:"lateFee"`
	Status     string    `json:"status"`
	Book       BookRef   `json:"book"`
}

// Reservation is one row of the member's active reservations.
type Reservation struct {
	ReservationID   int64     `json:"reservationId"`
	BookID          int64     `json:"bookId"`
	ReservationDate time.Time `json:"reservationDate"`
	Status          string    `json:"status"`
	Book            BookRef   `json:"book"`
}

// User is the profile record exchanged with /Users endpoints.
type User struct {
	UserID       int64  `json:"userId,omitempty"`
	UserName     string `json:"userName"`
	PasswordHash string `json:"passwordHash"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	IsActive     bool   `json:"isActive"`
}

// UserDTO carries login credentials.
type UserDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Transaction is one row of the user's payment history.
type Transaction struct {
	TransactionID   int64     `json:"transactionId"`
	UserID          int64     `json:"userId"`
	TransactionType string    `json:"transactionType"`
	Amount          int64     `json:"amount"`
	Date            time.Time `json:"date"`
	Details         string    `json:"details"`
}

// TransactionDTO is the payload for making a payment.
type TransactionDTO struct {
	UserID          int64  `json:"userId"`
	TransactionType string `json:"transactionType"`
	Amount          int64  `json:"amount"`
	Plan            string `json:"plan"`
	Details         string `json:"details"`
}

// Payment transaction types used by the client-driven flows.
const (
	TransactionLateFee       = "LateFee"
	TransactionMembershipFee = "MembershipFee"
)
