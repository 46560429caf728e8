package library

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
)

func tempManager(t *testing.T, handler http.Handler) *LibraryManager {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	mgr, err := NewLibraryManager(Config{
		APIBaseURL:      srv.URL,
		LogLevel:        "error",
		CredentialsPath: filepath.Join(t.TempDir(), "creds.db"),
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func validCard(now time.Time) CardDetails {
	return CardDetails{
		HolderName:  "Alice Smith",
		Number:      "1234-5678-9012-3456",
		ExpiryYear:  now.Year() + 1,
		ExpiryMonth: time.January,
		CVV:         "123",
	}
}

func TestLoginStoresTokenAndResolvesRole(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /Users/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "fresh-token"})
	})
	mux.HandleFunc("POST /Users/authorized", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("member"))
	})

	mgr := tempManager(t, mux)

	if err := mgr.Login("a@b.c", "Abc12345!"); err != nil {
		t.Fatalf("login: %v", err)
	}

	token, ok := mgr.creds.Token()
	if !ok || token != "fresh-token" {
		t.Fatalf("token not persisted, got %q (present=%v)", token, ok)
	}
	if !mgr.Session().Authenticated() {
		t.Fatal("should be authenticated after login")
	}
	if mgr.Session().Role() != RoleMember {
		t.Fatalf("want member, got %q", mgr.Session().Role())
	}
}

func TestLoginSurvivesFailedRoleCheck(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /Users/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "tok"})
	})
	mux.HandleFunc("POST /Users/authorized", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	mgr := tempManager(t, mux)

	// The token exchange worked; the role just has not resolved.
	if err := mgr.Login("a@b.c", "Abc12345!"); err != nil {
		t.Fatalf("login should not fail on role check: %v", err)
	}
	if mgr.Session().Role() != RoleUnset {
		t.Fatalf("role should stay unset, got %q", mgr.Session().Role())
	}
}

func TestLogoutClearsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /Users/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "tok"})
	})
	mux.HandleFunc("POST /Users/authorized", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("guest"))
	})

	mgr := tempManager(t, mux)
	if err := mgr.Login("a@b.c", "Abc12345!"); err != nil {
		t.Fatalf("login: %v", err)
	}

	mgr.Logout()

	if mgr.Session().Authenticated() {
		t.Fatal("should be logged out")
	}
	if _, ok := mgr.creds.Token(); ok {
		t.Fatal("token should be cleared")
	}
}

func TestRegisterActivationByRole(t *testing.T) {
	var gotUser User
	mux := http.NewServeMux()
	mux.HandleFunc("POST /Users/register", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotUser)
		json.NewEncoder(w).Encode(gotUser)
	})

	mgr := tempManager(t, mux)

	if _, err := mgr.Register(User{UserName: "alice1", Role: "guest"}); err != nil {
		t.Fatalf("register guest: %v", err)
	}
	if !gotUser.IsActive {
		t.Fatal("guests activate immediately")
	}

	if _, err := mgr.Register(User{UserName: "bobcat", Role: "member", IsActive: true}); err != nil {
		t.Fatalf("register member: %v", err)
	}
	if gotUser.IsActive {
		t.Fatal("members must start inactive regardless of input")
	}

	if _, err := mgr.Register(User{UserName: "carols", Role: "librarian"}); err != nil {
		t.Fatalf("register librarian: %v", err)
	}
	if gotUser.IsActive {
		t.Fatal("librarians await approval")
	}
}

func TestOTPResetFlow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /Users/sendotp", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "654321"})
	})
	mux.HandleFunc("POST /Users/resetpass", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer 654321" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"message": "Password updated"})
	})

	mgr := tempManager(t, mux)

	if err := mgr.SendOTP("a@b.c"); err != nil {
		t.Fatalf("send otp: %v", err)
	}
	if otp, ok := mgr.creds.OTP(); !ok || otp != "654321" {
		t.Fatalf("otp not held locally, got %q (present=%v)", otp, ok)
	}

	msg, err := mgr.ResetPassword("a@b.c", "NewPass1!", "654321")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if msg != "Password updated" {
		t.Fatalf("unexpected message %q", msg)
	}
	if _, ok := mgr.creds.OTP(); ok {
		t.Fatal("otp should be discarded after a completed reset")
	}
}

func TestPayLateFeeThenReturn(t *testing.T) {
	var gotTx TransactionDTO
	var returned bool
	mux := http.NewServeMux()
	mux.HandleFunc("POST /Users/payment", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotTx)
		json.NewEncoder(w).Encode(map[string]string{"message": "paid"})
	})
	mux.HandleFunc("PUT /Books/return/9", func(w http.ResponseWriter, r *http.Request) {
		if gotTx.TransactionType == "" {
			t.Error("return must happen after the payment")
		}
		returned = true
		json.NewEncoder(w).Encode(map[string]string{"message": "Book returned"})
	})

	mgr := tempManager(t, mux)
	mgr.creds.SetToken("tok")

	now := time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)
	book := BorrowedBook{
		BookID:  9,
		DueDate: now.Add(-30 * time.Hour), // two days of fees
		Book:    BookRef{BookID: 9, Title: "1984"},
	}

	msg, err := mgr.PayLateFee(book, validCard(now), now)
	if err != nil {
		t.Fatalf("pay late fee: %v", err)
	}
	if msg != "Book returned" {
		t.Fatalf("unexpected message %q", msg)
	}
	if !returned {
		t.Fatal("return call missing")
	}
	if gotTx.TransactionType != TransactionLateFee {
		t.Fatalf("want LateFee transaction, got %q", gotTx.TransactionType)
	}
	if gotTx.Amount != 100 {
		t.Fatalf("want fee 100, got %d", gotTx.Amount)
	}
	if gotTx.Details != "Late fee Payment for the 1984" {
		t.Fatalf("unexpected details %q", gotTx.Details)
	}
}

func TestPayLateFeeRejectsBadCardBeforeNetwork(t *testing.T) {
	calls := 0
	mgr := tempManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	now := time.Now()
	card := validCard(now)
	card.CVV = "12"

	if _, err := mgr.PayLateFee(BorrowedBook{BookID: 1}, card, now); err == nil {
		t.Fatal("bad card should fail validation")
	}
	if calls != 0 {
		t.Fatalf("no request should leave the client, got %d", calls)
	}
}

func TestUpgradeMembership(t *testing.T) {
	var gotTx TransactionDTO
	mux := http.NewServeMux()
	mux.HandleFunc("POST /Users/payment", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotTx)
		json.NewEncoder(w).Encode(map[string]string{"message": "Membership upgraded"})
	})

	mgr := tempManager(t, mux)
	mgr.creds.SetToken("tok")

	now := time.Now()
	msg, err := mgr.UpgradeMembership("monthly", 500, validCard(now), now)
	if err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if msg != "Membership upgraded" {
		t.Fatalf("unexpected message %q", msg)
	}
	if gotTx.TransactionType != TransactionMembershipFee {
		t.Fatalf("want MembershipFee, got %q", gotTx.TransactionType)
	}
	if gotTx.Plan != "monthly" || gotTx.Amount != 500 {
		t.Fatalf("unexpected transaction %+v", gotTx)
	}
}
