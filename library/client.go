package library

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultRequestTimeout = 10 * time.Second

// fallbackErrorMessage is shown when the backend gives nothing usable.
const fallbackErrorMessage = "Something went wrong. Please try again later."

// Client calls the library backend over HTTP. One method per backend
// operation; the bearer token is re-read from the credential store on
// every call, so a login or logout in the same process is picked up
// immediately.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      *CredentialStore
}

// APIError represents a backend error response. The user-facing
// message resolves the body's "error" field first, then "title", then
// per-field validation errors, then a hardcoded fallback.
type APIError struct {
	Status      int
	ErrorMsg    string
	Title       string
	FieldErrors map[string][]string
}

func (e *APIError) Error() string { return e.Message() }

// Message extracts the human-readable message in priority order.
func (e *APIError) Message() string {
	if e.ErrorMsg != "" {
		return e.ErrorMsg
	}
	if e.Title != "" {
		return e.Title
	}
	for _, msgs := range e.FieldErrors {
		if len(msgs) > 0 {
			return msgs[0]
		}
	}
	return fallbackErrorMessage
}

// NewClient constructs a backend client. timeout <= 0 selects the
// default request timeout.
func NewClient(baseURL string, timeout time.Duration, creds *CredentialStore) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		creds:      creds,
	}
}

// ------------------ Books ------------------

// GetBooks queries the catalog. Either filter may be empty; catalog
// search requires no authentication.
func (c *Client) GetBooks(search, category string) ([]Book, error) {
	query := url.Values{}
	if search != "" {
		query.Set("search", search)
	}
	if category != "" {
		query.Set("category", category)
	}
	var resp booksResponse
	if err := c.doJSON(http.MethodGet, "/Books", query, false, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Message, nil
}

// GetBorrowedBooks lists the current member's borrow history.
func (c *Client) GetBorrowedBooks() ([]BorrowedBook, error) {
	var resp borrowedResponse
	if err := c.doJSON(http.MethodGet, "/Books/borrow", nil, true, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Message, nil
}

// GetReservedBooks lists the current member's active reservations.
func (c *Client) GetReservedBooks() ([]Reservation, error) {
	var resp reservationsResponse
	if err := c.doJSON(http.MethodGet, "/Books/reserved", nil, true, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Message, nil
}

func (c *Client) bookAction(action string, bookID int64) (string, error) {
	path := fmt.Sprintf("/Books/%s/%d", action, bookID)
	var resp messageResponse
	if err := c.doJSON(http.MethodPut, path, nil, true, nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// BorrowBook borrows a book for the current member.
func (c *Client) BorrowBook(bookID int64) (string, error) { return c.bookAction("borrow", bookID) }

// ReturnBook returns a borrowed book.
func (c *Client) ReturnBook(bookID int64) (string, error) { return c.bookAction("return", bookID) }

// ReserveBook places a reservation on a book.
func (c *Client) ReserveBook(bookID int64) (string, error) { return c.bookAction("reserve", bookID) }

// WithdrawReservation cancels an active reservation.
func (c *Client) WithdrawReservation(bookID int64) (string, error) {
	return c.bookAction("withdraw", bookID)
}

// UpdateBookCopies adds copies to a catalog entry.
func (c *Client) UpdateBookCopies(bookID, copies int64) (string, error) {
	path := fmt.Sprintf("/Books/%d", bookID)
	query := url.Values{}
	query.Set("copies", fmt.Sprintf("%d", copies))
	var resp messageResponse
	if err := c.doJSON(http.MethodPut, path, query, true, nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// AddBook creates a catalog entry. The backend echoes the stored book.
func (c *Client) AddBook(book BookDTO) (Book, error) {
	var created Book
	if err := c.doJSON(http.MethodPost, "/Books", nil, true, nil, book, &created); err != nil {
		return Book{}, err
	}
	return created, nil
}

// ------------------ Users ------------------

// Register creates a new account. Registration is anonymous.
func (c *Client) Register(user User) (User, error) {
	var created User
	if err := c.doJSON(http.MethodPost, "/Users/register", nil, false, nil, user, &created); err != nil {
		return User{}, err
	}
	return created, nil
}

// Login exchanges credentials for an opaque bearer token.
func (c *Client) Login(creds UserDTO) (string, error) {
	var resp messageResponse
	if err := c.doJSON(http.MethodPost, "/Users/login", nil, false, nil, creds, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Authorized asks the backend whether the stored token is still
// accepted and which role it maps to. The role arrives as a plain-text
// body on status 200; any other outcome is an error.
func (c *Client) Authorized() (Role, error) {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/Users/authorized", nil)
	if err != nil {
		return RoleUnset, err
	}
	c.setCommonHeaders(req, true)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return RoleUnset, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
	if err != nil {
		return RoleUnset, err
	}
	if resp.StatusCode != http.StatusOK {
		return RoleUnset, &APIError{Status: resp.StatusCode, Title: resp.Status}
	}
	role := ParseRole(strings.TrimSpace(string(body)))
	if role == RoleUnset {
		return RoleUnset, fmt.Errorf("unrecognized role %q", strings.TrimSpace(string(body)))
	}
	return role, nil
}

// SendOTP requests a one-time password for the given email. The OTP
// comes back in the response for the client to hold until the reset.
func (c *Client) SendOTP(email string) (string, error) {
	query := url.Values{}
	query.Set("email", email)
	var resp messageResponse
	if err := c.doJSON(http.MethodGet, "/Users/sendotp", query, false, nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ResetPassword completes a password reset. The previously stored OTP
// rides as the bearer credential and the user-entered OTP in the Otp
// header, matching the backend's reset contract.
func (c *Client) ResetPassword(email, password, enteredOTP string) (string, error) {
	header := http.Header{}
	if stored, ok := c.creds.OTP(); ok {
		header.Set("Authorization", "Bearer "+stored)
	}
	header.Set("Otp", "Otp "+enteredOTP)
	payload := UserDTO{Email: email, Password: password}
	var resp messageResponse
	if err := c.doJSON(http.MethodPost, "/Users/resetpass", nil, false, header, payload, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// GetProfile fetches the current user's profile.
func (c *Client) GetProfile() (User, error) {
	var resp userResponse
	if err := c.doJSON(http.MethodGet, "/Users", nil, true, nil, nil, &resp); err != nil {
		return User{}, err
	}
	return resp.Message, nil
}

// SaveProfile updates the current user's profile.
func (c *Client) SaveProfile(user User) (string, error) {
	var resp messageResponse
	if err := c.doJSON(http.MethodPut, "/Users", nil, true, nil, user, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// GetTransactions lists the user's payment history.
func (c *Client) GetTransactions() ([]Transaction, error) {
	var resp transactionsResponse
	if err := c.doJSON(http.MethodGet, "/Users/transactions", nil, true, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Message, nil
}

// MakePayment submits a payment transaction.
func (c *Client) MakePayment(tx TransactionDTO) (string, error) {
	var resp messageResponse
	if err := c.doJSON(http.MethodPost, "/Users/payment", nil, true, nil, tx, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// PendingRequests lists users waiting for librarian approval.
func (c *Client) PendingRequests() ([]User, error) {
	var resp usersResponse
	if err := c.doJSON(http.MethodGet, "/Users/requests", nil, true, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Message, nil
}

// AcceptLibrarian approves a pending librarian request.
func (c *Client) AcceptLibrarian(id int64) (string, error) {
	path := fmt.Sprintf("/Users/AcceptLibrarian/%d", id)
	var resp messageResponse
	if err := c.doJSON(http.MethodPost, path, nil, true, nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ------------------ Plumbing ------------------

func (c *Client) setCommonHeaders(req *http.Request, auth bool) {
	req.Header.Set("X-Request-Id", uuid.NewString())
	if auth {
		if token, ok := c.creds.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

func (c *Client) doJSON(method, path string, query url.Values, auth bool, header http.Header, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequest(method, target, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setCommonHeaders(req, auth)
	for key, values := range header {
		for _, value := range values {
			req.Header.Set(key, value)
		}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error  string              `json:"error"`
			Title  string              `json:"title"`
			Errors map[string][]string `json:"errors"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&errResp)
		return &APIError{
			Status:      resp.StatusCode,
			ErrorMsg:    errResp.Error,
			Title:       errResp.Title,
			FieldErrors: errResp.Errors,
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		return err
	}
	return nil
}

type messageResponse struct {
	Message string `json:"message"`
}

type booksResponse struct {
	Message []Book `json:"message"`
}

type borrowedResponse struct {
	Message []BorrowedBook `json:"message"`
}

type reservationsResponse struct {
	Message []Reservation `json:"message"`
}

type transactionsResponse struct {
	Message []Transaction `json:"message"`
}

type userResponse struct {
	Message User `json:"message"`
}

type usersResponse struct {
	Message []User `json:"message"`
}
