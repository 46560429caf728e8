package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/Nithishkumar654/LibraryMaster/library"

	"github.com/spf13/cobra"
)

var (
	importFile  string
	importEmail string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-add books to the catalog from a JSON file.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(importFile)
		if err != nil {
			return err
		}

		var books []library.BookDTO
		if err := json.Unmarshal(data, &books); err != nil {
			return fmt.Errorf("parse %s: %w", importFile, err)
		}
		if len(books) == 0 {
			return errors.New("no books in file")
		}

		mgr, err := loadManager(importEmail)
		if err != nil {
			return err
		}
		defer mgr.Close()

		successCount := 0
		errorCount := 0

		for _, b := range books {
			if err := library.ValidateISBN(b.ISBN); err != nil {
				cmd.Printf("Skipping '%s': %v\n", b.Title, err)
				errorCount++
				continue
			}

			added, err := mgr.AddBook(b)
			if err != nil {
				cmd.Printf("Error adding '%s': %v\n", b.Title, err)
				errorCount++
				continue
			}
			cmd.Printf("Added '%s' by %s (ID: %d)\n", added.Title, added.Author, added.BookID)
			successCount++
		}

		cmd.Printf("\nImport complete. Added: %d, errors: %d\n", successCount, errorCount)
		if errorCount > 0 {
			return fmt.Errorf("%d book(s) failed to import", errorCount)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "JSON file holding an array of books")
	importCmd.Flags().StringVar(&importEmail, "email", "", "Email to log in with when no session is stored")
	_ = importCmd.MarkFlagRequired("file")
}
