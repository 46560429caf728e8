package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	copiesBookID int64
	copiesCount  int64
	copiesEmail  string
)

var updateCopiesCmd = &cobra.Command{
	Use:   "update-copies",
	Short: "Set the available copy count for a book.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if copiesCount < 0 {
			return errors.New("--copies must not be negative")
		}

		mgr, err := loadManager(copiesEmail)
		if err != nil {
			return err
		}
		defer mgr.Close()

		msg, err := mgr.UpdateBookCopies(copiesBookID, copiesCount)
		if err != nil {
			return err
		}
		cmd.Println(msg)
		return nil
	},
}

func init() {
	updateCopiesCmd.Flags().Int64Var(&copiesBookID, "book", 0, "Book ID to update")
	updateCopiesCmd.Flags().Int64Var(&copiesCount, "copies", 0, "New available copy count")
	updateCopiesCmd.Flags().StringVar(&copiesEmail, "email", "", "Email to log in with when no session is stored")
	_ = updateCopiesCmd.MarkFlagRequired("book")
	_ = updateCopiesCmd.MarkFlagRequired("copies")
}
