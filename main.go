package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Nithishkumar654/LibraryMaster/library"

	"golang.org/x/term"
)

const configFile = "config.yaml"

// readPassword securely reads a password with masking
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println() // Add newline after password input
	return strings.TrimSpace(string(bytePassword)), nil
}

// readLine prompts and returns one trimmed input line
func readLine(sc *bufio.Scanner, prompt string) (string, bool) {
	fmt.Print(prompt)
	if !sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sc.Text()), true
}

// readID prompts for and parses a numeric ID
func readID(sc *bufio.Scanner, prompt string) (int64, bool) {
	s, ok := readLine(sc, prompt)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		fmt.Printf("Invalid ID: %s\n", s)
		return 0, false
	}
	return id, true
}

func main() {
	cfg, err := library.LoadConfig(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	library.InitLogger(cfg.LogLevel, os.Stderr)

	manager, err := library.NewLibraryManager(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting manager: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	gate := manager.Session().NewGate(
		library.CapAddBook,
		library.CapUpdateCopies,
		library.CapManageBooks,
		library.CapBorrow,
		library.CapReturn,
		library.CapReserve,
		library.CapWithdraw,
		library.CapViewBorrowed,
		library.CapViewReserved,
		library.CapViewTransactions,
		library.CapViewRequests,
		library.CapApproveLibrarian,
		library.CapUpgradeMembership,
		library.CapEditProfile,
	)
	defer gate.Close()

	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Welcome to LibraryMaster!")
	printHelp(gate)

	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		cmd := strings.TrimSpace(scanner.Text())

		switch cmd {
		case "help":
			printHelp(gate)
		case "login":
			handleLogin(scanner, manager)
		case "logout":
			handleLogout(manager)
		case "register":
			handleRegister(scanner, manager)
		case "forgot password":
			handleForgotPassword(scanner, manager)
		case "whoami":
			handleWhoAmI(manager)
		case "books":
			handleBooks(scanner, manager)
		case "borrow":
			handleGated(gate, library.CapBorrow, func() { handleBorrow(scanner, manager) })
		case "return":
			handleGated(gate, library.CapReturn, func() { handleReturn(scanner, manager) })
		case "reserve":
			handleGated(gate, library.CapReserve, func() { handleReserve(scanner, manager) })
		case "withdraw":
			handleGated(gate, library.CapWithdraw, func() { handleWithdraw(scanner, manager) })
		case "borrowed":
			handleGated(gate, library.CapViewBorrowed, func() { handleBorrowed(manager) })
		case "reserved":
			handleGated(gate, library.CapViewReserved, func() { handleReserved(manager) })
		case "history":
			handleGated(gate, library.CapViewTransactions, func() { handleHistory(manager) })
		case "upgrade":
			handleGated(gate, library.CapUpgradeMembership, func() { handleUpgrade(scanner, manager) })
		case "profile":
			handleGated(gate, library.CapEditProfile, func() { handleProfile(scanner, manager) })
		case "requests":
			handleGated(gate, library.CapViewRequests, func() { handleRequests(manager) })
		case "approve":
			handleGated(gate, library.CapApproveLibrarian, func() { handleApprove(scanner, manager) })
		case "add book":
			handleGated(gate, library.CapAddBook, func() { handleAddBook(scanner, manager) })
		case "update copies":
			handleGated(gate, library.CapUpdateCopies, func() { handleUpdateCopies(scanner, manager) })
		case "exit":
			fmt.Println("Goodbye!")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for the available commands.")
		}
	}
}

// handleGated runs fn only when the session role grants cap
func handleGated(gate *library.Gate, cap library.Capability, fn func()) {
	if !gate.Visible(cap) {
		fmt.Println("This command is not available for your account. Log in or check your role.")
		return
	}
	fn()
}

func printHelp(gate *library.Gate) {
	fmt.Println("Available commands:")
	fmt.Println("  Account: login, logout, register, forgot password, whoami, profile")
	fmt.Println("  Catalog: books")
	if gate.Visible(library.CapBorrow) {
		fmt.Println("  Circulation: borrow, return, reserve, withdraw, borrowed, reserved, history")
	}
	if gate.Visible(library.CapUpgradeMembership) {
		fmt.Println("  Membership: upgrade")
	}
	if gate.Visible(library.CapManageBooks) {
		fmt.Println("  Librarian: add book, update copies")
	}
	if gate.Visible(library.CapViewRequests) {
		fmt.Println("  Admin: requests, approve")
	}
	fmt.Println("  System: help, exit")
}

// ------------------ Account commands ------------------

func handleLogin(sc *bufio.Scanner, mgr *library.LibraryManager) {
	email, ok := readLine(sc, "Email: ")
	if !ok {
		return
	}

	password, err := readPassword("Password: ")
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}

	if err := mgr.Login(email, password); err != nil {
		fmt.Printf("Login failed: %v\n", err)
		return
	}

	fmt.Printf("Logged in as %s (%s)\n", email, mgr.Session().Role())
}

func handleLogout(mgr *library.LibraryManager) {
	mgr.Logout()
	fmt.Println("Logged out.")
}

func handleRegister(sc *bufio.Scanner, mgr *library.LibraryManager) {
	userName, ok := readLine(sc, "Username: ")
	if !ok {
		return
	}
	if err := library.ValidateUsername(userName); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	email, ok := readLine(sc, "Email: ")
	if !ok {
		return
	}

	role, ok := readLine(sc, "Role (guest/member/librarian): ")
	if !ok {
		return
	}
	if library.ParseRole(role) == library.RoleUnset || library.ParseRole(role) == library.RoleAdmin {
		fmt.Printf("Invalid role: %s\n", role)
		return
	}

	password, err := readPassword("Password: ")
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}
	if err := library.ValidatePassword(password); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	user, err := mgr.Register(library.User{
		UserName:     userName,
		Email:        email,
		Role:         role,
		PasswordHash: password,
	})
	if err != nil {
		fmt.Printf("Registration failed: %v\n", err)
		return
	}

	if user.IsActive {
		fmt.Printf("Registered '%s'. You can log in now.\n", user.UserName)
	} else {
		fmt.Printf("Registered '%s'. The account activates once approved or paid for.\n", user.UserName)
	}
}

func handleForgotPassword(sc *bufio.Scanner, mgr *library.LibraryManager) {
	email, ok := readLine(sc, "Email: ")
	if !ok {
		return
	}

	if err := mgr.SendOTP(email); err != nil {
		fmt.Printf("Error sending OTP: %v\n", err)
		return
	}
	fmt.Println("OTP sent. Check your email.")

	otp, ok := readLine(sc, "OTP: ")
	if !ok {
		return
	}

	password, err := readPassword("New password: ")
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}
	if err := library.ValidatePassword(password); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	msg, err := mgr.ResetPassword(email, password, otp)
	if err != nil {
		fmt.Printf("Error resetting password: %v\n", err)
		return
	}
	fmt.Println(msg)
}

func handleWhoAmI(mgr *library.LibraryManager) {
	s := mgr.Session()
	if !s.Authenticated() {
		fmt.Println("Not logged in.")
		return
	}
	role := s.Role()
	if role == library.RoleUnset {
		fmt.Println("Logged in, role not resolved yet.")
		return
	}
	fmt.Printf("Logged in as %s\n", role)
}

func handleProfile(sc *bufio.Scanner, mgr *library.LibraryManager) {
	user, err := mgr.GetProfile()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("Username: %s\nEmail: %s\nRole: %s\n", user.UserName, user.Email, user.Role)

	answer, ok := readLine(sc, "Edit username? (y/n): ")
	if !ok || answer != "y" {
		return
	}

	userName, ok := readLine(sc, "New username: ")
	if !ok {
		return
	}
	if err := library.ValidateUsername(userName); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	user.UserName = userName
	msg, err := mgr.SaveProfile(user)
	if err != nil {
		fmt.Printf("Error saving profile: %v\n", err)
		return
	}
	fmt.Println(msg)
}

// ------------------ Catalog commands ------------------

func handleBooks(sc *bufio.Scanner, mgr *library.LibraryManager) {
	search, ok := readLine(sc, "Search (or press Enter for all): ")
	if !ok {
		return
	}
	category, ok := readLine(sc, "Category (or press Enter for all): ")
	if !ok {
		return
	}

	books, err := mgr.GetBooks(search, category)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(books) == 0 {
		fmt.Println("No books found.")
		return
	}

	fmt.Printf("%-5s %-30s %-25s %-15s %-10s %s\n", "ID", "Title", "Author", "Genre", "Copies", "Status")
	fmt.Println(strings.Repeat("-", 95))
	for _, b := range books {
		fmt.Printf("%-5d %-30s %-25s %-15s %-10d %s\n",
			b.BookID,
			truncateString(b.Title, 30),
			truncateString(b.Author, 25),
			truncateString(b.Genre, 15),
			b.AvailableCopies,
			b.Status)
	}
}

func handleAddBook(sc *bufio.Scanner, mgr *library.LibraryManager) {
	title, ok := readLine(sc, "Title: ")
	if !ok {
		return
	}
	author, ok := readLine(sc, "Author: ")
	if !ok {
		return
	}
	genre, ok := readLine(sc, "Genre: ")
	if !ok {
		return
	}
	isbn, ok := readLine(sc, "ISBN (10 digits): ")
	if !ok {
		return
	}
	if err := library.ValidateISBN(isbn); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	copies, ok := readID(sc, "Available copies: ")
	if !ok {
		return
	}
	categoryID, ok := readID(sc, "Category ID: ")
	if !ok {
		return
	}

	book, err := mgr.AddBook(library.BookDTO{
		Title:           title,
		Author:          author,
		Genre:           genre,
		ISBN:            isbn,
		PublicationDate: time.Now().UTC(),
		AvailableCopies: copies,
		Status:          "Available",
		CategoryID:      categoryID,
	})
	if err != nil {
		fmt.Printf("Error adding book: %v\n", err)
		return
	}
	fmt.Printf("Added book '%s' with ID %d\n", book.Title, book.BookID)
}

func handleUpdateCopies(sc *bufio.Scanner, mgr *library.LibraryManager) {
	bookID, ok := readID(sc, "Book ID: ")
	if !ok {
		return
	}
	copies, ok := readID(sc, "Available copies: ")
	if !ok {
		return
	}

	msg, err := mgr.UpdateBookCopies(bookID, copies)
	if err != nil {
		fmt.Printf("Error updating copies: %v\n", err)
		return
	}
	fmt.Println(msg)
}

// ------------------ Circulation commands ------------------

func handleBorrow(sc *bufio.Scanner, mgr *library.LibraryManager) {
	bookID, ok := readID(sc, "Book ID: ")
	if !ok {
		return
	}

	msg, err := mgr.BorrowBook(bookID)
	if err != nil {
		fmt.Printf("Error borrowing book: %v\n", err)
		return
	}
	fmt.Println(msg)
}

func handleReturn(sc *bufio.Scanner, mgr *library.LibraryManager) {
	bookID, ok := readID(sc, "Book ID: ")
	if !ok {
		return
	}

	borrowed, err := mgr.GetBorrowedBooks()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	var row *library.BorrowedBook
	for i := range borrowed {
		if borrowed[i].BookID == bookID && borrowed[i].Status != "Returned" {
			row = &borrowed[i]
			break
		}
	}
	if row == nil {
		fmt.Printf("No active borrow found for book ID %d\n", bookID)
		return
	}

	now := time.Now()
	fee := library.LateFee(row.DueDate, now)
	if fee == 0 {
		msg, err := mgr.ReturnBook(bookID)
		if err != nil {
			fmt.Printf("Error returning book: %v\n", err)
			return
		}
		fmt.Println(msg)
		return
	}

	fmt.Printf("'%s' is overdue. Late fee: %d\n", row.Book.Title, fee)
	card, ok := readCard(sc)
	if !ok {
		return
	}

	msg, err := mgr.PayLateFee(*row, card, now)
	if err != nil {
		fmt.Printf("Error paying late fee: %v\n", err)
		return
	}
	fmt.Println(msg)
}

func handleReserve(sc *bufio.Scanner, mgr *library.LibraryManager) {
	bookID, ok := readID(sc, "Book ID: ")
	if !ok {
		return
	}

	msg, err := mgr.ReserveBook(bookID)
	if err != nil {
		fmt.Printf("Error reserving book: %v\n", err)
		return
	}
	fmt.Println(msg)
}

func handleWithdraw(sc *bufio.Scanner, mgr *library.LibraryManager) {
	bookID, ok := readID(sc, "Book ID: ")
	if !ok {
		return
	}

	msg, err := mgr.WithdrawReservation(bookID)
	if err != nil {
		fmt.Printf("Error withdrawing reservation: %v\n", err)
		return
	}
	fmt.Println(msg)
}

func handleBorrowed(mgr *library.LibraryManager) {
	borrowed, err := mgr.GetBorrowedBooks()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(borrowed) == 0 {
		fmt.Println("No borrowed books.")
		return
	}

	now := time.Now()
	fmt.Printf("%-5s %-30s %-12s %-12s %-10s %s\n", "ID", "Title", "Borrowed", "Due", "Late Fee", "Status")
	fmt.Println(strings.Repeat("-", 85))
	for _, b := range borrowed {
		fee := b.LateFee
		if b.Status != "Returned" {
			fee = library.LateFee(b.DueDate, now)
		}
		fmt.Printf("%-5d %-30s %-12s %-12s %-10d %s\n",
			b.BookID,
			truncateString(b.Book.Title, 30),
			b.BorrowDate.Format("2006-01-02"),
			b.DueDate.Format("2006-01-02"),
			fee,
			b.Status)
	}
}

func handleReserved(mgr *library.LibraryManager) {
	reservations, err := mgr.GetReservedBooks()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(reservations) == 0 {
		fmt.Println("No reservations.")
		return
	}

	fmt.Printf("%-5s %-30s %-12s %s\n", "ID", "Title", "Reserved", "Status")
	fmt.Println(strings.Repeat("-", 60))
	for _, r := range reservations {
		fmt.Printf("%-5d %-30s %-12s %s\n",
			r.BookID,
			truncateString(r.Book.Title, 30),
			r.ReservationDate.Format("2006-01-02"),
			r.Status)
	}
}

func handleHistory(mgr *library.LibraryManager) {
	transactions, err := mgr.GetTransactions()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(transactions) == 0 {
		fmt.Println("No transactions.")
		return
	}

	fmt.Printf("%-5s %-15s %-10s %-12s %s\n", "ID", "Type", "Amount", "Date", "Details")
	fmt.Println(strings.Repeat("-", 80))
	for _, t := range transactions {
		fmt.Printf("%-5d %-15s %-10d %-12s %s\n",
			t.TransactionID,
			t.TransactionType,
			t.Amount,
			t.Date.Format("2006-01-02"),
			t.Details)
	}
}

// ------------------ Payment commands ------------------

// readCard collects and validates card details for a payment
func readCard(sc *bufio.Scanner) (library.CardDetails, bool) {
	var card library.CardDetails

	holder, ok := readLine(sc, "Card holder name: ")
	if !ok {
		return card, false
	}
	number, ok := readLine(sc, "Card number (0000-0000-0000-0000): ")
	if !ok {
		return card, false
	}
	expiry, ok := readLine(sc, "Expiry (MM/YYYY): ")
	if !ok {
		return card, false
	}
	cvv, ok := readLine(sc, "CVV: ")
	if !ok {
		return card, false
	}

	parts := strings.SplitN(expiry, "/", 2)
	if len(parts) != 2 {
		fmt.Printf("Invalid expiry: %s\n", expiry)
		return card, false
	}
	month, errM := strconv.Atoi(parts[0])
	year, errY := strconv.Atoi(parts[1])
	if errM != nil || errY != nil || month < 1 || month > 12 {
		fmt.Printf("Invalid expiry: %s\n", expiry)
		return card, false
	}

	card = library.CardDetails{
		HolderName:  holder,
		Number:      number,
		ExpiryYear:  year,
		ExpiryMonth: time.Month(month),
		CVV:         cvv,
	}
	if err := card.Validate(time.Now()); err != nil {
		fmt.Printf("Error: %v\n", err)
		return card, false
	}
	return card, true
}

func handleUpgrade(sc *bufio.Scanner, mgr *library.LibraryManager) {
	plan, ok := readLine(sc, "Plan (monthly/yearly): ")
	if !ok {
		return
	}

	var amount int64
	switch plan {
	case "monthly":
		amount = 500
	case "yearly":
		amount = 5000
	default:
		fmt.Printf("Unknown plan: %s\n", plan)
		return
	}
	fmt.Printf("The %s plan costs %d\n", plan, amount)

	card, ok := readCard(sc)
	if !ok {
		return
	}

	msg, err := mgr.UpgradeMembership(plan, amount, card, time.Now())
	if err != nil {
		fmt.Printf("Error upgrading membership: %v\n", err)
		return
	}
	fmt.Println(msg)
	fmt.Println("Log out and back in to refresh your role.")
}

// ------------------ Admin commands ------------------

func handleRequests(mgr *library.LibraryManager) {
	requests, err := mgr.PendingRequests()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(requests) == 0 {
		fmt.Println("No pending librarian requests.")
		return
	}

	fmt.Printf("%-5s %-25s %s\n", "ID", "Username", "Email")
	fmt.Println(strings.Repeat("-", 60))
	for _, u := range requests {
		fmt.Printf("%-5d %-25s %s\n", u.UserID, u.UserName, u.Email)
	}
}

func handleApprove(sc *bufio.Scanner, mgr *library.LibraryManager) {
	userID, ok := readID(sc, "User ID: ")
	if !ok {
		return
	}

	msg, err := mgr.AcceptLibrarian(userID)
	if err != nil {
		fmt.Printf("Error approving request: %v\n", err)
		return
	}
	fmt.Println(msg)
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength-3] + "..."
}
