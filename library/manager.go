package library

import (
	"fmt"
	"log/slog"
	"time"
)

// LibraryManager is a thin façade over the credential store, the API
// client, and the session, keeping screen code simple. It owns the
// multi-step flows (login, OTP reset, fee payment) that span more than
// one backend call.
type LibraryManager struct {
	creds   *CredentialStore
	client  *Client
	session *Session
}

// NewLibraryManager opens the local credential store and wires the
// client and session from cfg. The session seeds itself from the
// stored credential as part of construction.
func NewLibraryManager(cfg Config) (*LibraryManager, error) {
	creds, err := OpenCredentialStore(cfg.CredentialsPath)
	if err != nil {
		return nil, err
	}
	timeout, err := ParseRequestTimeout(cfg.RequestTimeout)
	if err != nil {
		creds.Close()
		return nil, err
	}
	client := NewClient(cfg.APIBaseURL, timeout, creds)
	return &LibraryManager{
		creds:   creds,
		client:  client,
		session: NewSession(creds, client),
	}, nil
}

// Close closes the underlying credential store.
func (lm *LibraryManager) Close() error { return lm.creds.Close() }

// Session exposes the session for subscriptions and gating.
func (lm *LibraryManager) Session() *Session { return lm.session }

// Client exposes the raw API client for pass-through calls.
func (lm *LibraryManager) Client() *Client { return lm.client }

// ------------------ Auth flows ------------------

// Login exchanges credentials for a token, persists it, flips the
// session to authenticated, and runs the authorization check so the
// role resolves. Role-gated affordances stay hidden until it does.
func (lm *LibraryManager) Login(email, password string) error {
	token, err := lm.client.Login(UserDTO{Email: email, Password: password})
	if err != nil {
		return err
	}
	if err := lm.creds.SetToken(token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	lm.session.SetAuthenticated(true)
	if err := lm.session.CheckAuthorization(); err != nil {
		// Login itself succeeded; the role stays unresolved and
		// gating stays closed until a later check passes.
		slog.Warn("authorization check after login failed", "err", err)
	}
	return nil
}

// Logout drops the local session; it always succeeds and involves no
// network call.
func (lm *LibraryManager) Logout() { lm.session.Logout() }

// Register creates an account. Guests start active; members await
// payment and librarians await admin approval.
func (lm *LibraryManager) Register(user User) (User, error) {
	user.IsActive = user.Role == string(RoleGuest)
	return lm.client.Register(user)
}

// SendOTP requests a reset OTP and holds it locally until the reset
// completes.
func (lm *LibraryManager) SendOTP(email string) error {
	otp, err := lm.client.SendOTP(email)
	if err != nil {
		return err
	}
	if err := lm.creds.SetOTP(otp); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return nil
}

// ResetPassword completes the OTP reset and discards the held OTP on
// success.
func (lm *LibraryManager) ResetPassword(email, password, enteredOTP string) (string, error) {
	msg, err := lm.client.ResetPassword(email, password, enteredOTP)
	if err != nil {
		return "", err
	}
	if err := lm.creds.ClearOTP(); err != nil {
		slog.Warn("clear otp", "err", err)
	}
	return msg, nil
}

// ------------------ Payment flows ------------------

// CardDetails carries the card form fields for a payment.
type CardDetails struct {
	HolderName  string
	Number      string
	ExpiryYear  int
	ExpiryMonth time.Month
	CVV         string
}

// Validate runs the card field predicates, month-granular expiry
// included.
func (c CardDetails) Validate(now time.Time) error {
	if err := ValidateCardHolder(c.HolderName); err != nil {
		return err
	}
	if err := ValidateCardNumber(c.Number); err != nil {
		return err
	}
	if err := ValidateCVV(c.CVV); err != nil {
		return err
	}
	return ValidateExpiry(c.ExpiryYear, c.ExpiryMonth, now)
}

// PayLateFee pays the computed late fee for an overdue borrow and then
// returns the book.
func (lm *LibraryManager) PayLateFee(book BorrowedBook, card CardDetails, now time.Time) (string, error) {
	if err := card.Validate(now); err != nil {
		return "", err
	}
	fee := LateFee(book.DueDate, now)
	tx := TransactionDTO{
		TransactionType: TransactionLateFee,
		Amount:          fee,
		Details:         fmt.Sprintf("Late fee Payment for the %s", book.Book.Title),
	}
	if _, err := lm.client.MakePayment(tx); err != nil {
		return "", err
	}
	return lm.client.ReturnBook(book.BookID)
}

// UpgradeMembership pays the membership fee for the chosen plan.
func (lm *LibraryManager) UpgradeMembership(plan string, amount int64, card CardDetails, now time.Time) (string, error) {
	if err := card.Validate(now); err != nil {
		return "", err
	}
	tx := TransactionDTO{
		TransactionType: TransactionMembershipFee,
		Amount:          amount,
		Plan:            plan,
		Details:         fmt.Sprintf("Membership payment for %s plan", plan),
	}
	return lm.client.MakePayment(tx)
}

// ------------------ Pass-through helpers ------------------

func (lm *LibraryManager) GetBooks(search, category string) ([]Book, error) {
	return lm.client.GetBooks(search, category)
}

func (lm *LibraryManager) GetBorrowedBooks() ([]BorrowedBook, error) {
	return lm.client.GetBorrowedBooks()
}

func (lm *LibraryManager) GetReservedBooks() ([]Reservation, error) {
	return lm.client.GetReservedBooks()
}

func (lm *LibraryManager) BorrowBook(bookID int64) (string, error) {
	return lm.client.BorrowBook(bookID)
}

func (lm *LibraryManager) ReturnBook(bookID int64) (string, error) {
	return lm.client.ReturnBook(bookID)
}

func (lm *LibraryManager) ReserveBook(bookID int64) (string, error) {
	return lm.client.ReserveBook(bookID)
}

func (lm *LibraryManager) WithdrawReservation(bookID int64) (string, error) {
	return lm.client.WithdrawReservation(bookID)
}

func (lm *LibraryManager) UpdateBookCopies(bookID, copies int64) (string, error) {
	return lm.client.UpdateBookCopies(bookID, copies)
}

func (lm *LibraryManager) AddBook(book BookDTO) (Book, error) { return lm.client.AddBook(book) }

func (lm *LibraryManager) GetProfile() (User, error) { return lm.client.GetProfile() }

func (lm *LibraryManager) SaveProfile(user User) (string, error) {
	return lm.client.SaveProfile(user)
}

func (lm *LibraryManager) GetTransactions() ([]Transaction, error) {
	return lm.client.GetTransactions()
}

func (lm *LibraryManager) PendingRequests() ([]User, error) { return lm.client.PendingRequests() }

func (lm *LibraryManager) AcceptLibrarian(id int64) (string, error) {
	return lm.client.AcceptLibrarian(id)
}
