package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Nithishkumar654/LibraryMaster/library"

	"golang.org/x/term"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadManager builds a manager from the config file and makes sure the
// session carries a usable credential, logging in with the given email
// when it does not.
func loadManager(email string) (*library.LibraryManager, error) {
	cfg, err := library.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	library.InitLogger(cfg.LogLevel, os.Stderr)

	mgr, err := library.NewLibraryManager(cfg)
	if err != nil {
		return nil, err
	}

	if err := mgr.Session().CheckAuthorization(); err == nil && mgr.Session().Authenticated() {
		return mgr, nil
	}

	if email == "" {
		mgr.Close()
		return nil, errors.New("no stored session; rerun with --email to log in")
	}
	password, err := promptPassword()
	if err != nil {
		mgr.Close()
		return nil, err
	}
	if err := mgr.Login(email, password); err != nil {
		mgr.Close()
		return nil, fmt.Errorf("login: %w", err)
	}
	return mgr, nil
}

func promptPassword() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("stdin is not a terminal; log in interactively once to store a session")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", errors.New("password is empty")
	}
	return string(raw), nil
}
