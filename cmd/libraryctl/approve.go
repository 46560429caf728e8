package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var (
	approveID    int64
	approveList  bool
	approveEmail string
)

var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "List and approve pending librarian requests.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := loadManager(approveEmail)
		if err != nil {
			return err
		}
		defer mgr.Close()

		if approveList || approveID == 0 {
			requests, err := mgr.PendingRequests()
			if err != nil {
				return err
			}
			if len(requests) == 0 {
				cmd.Println("No pending librarian requests.")
				return nil
			}
			cmd.Printf("%-5s %-25s %s\n", "ID", "Username", "Email")
			cmd.Println(strings.Repeat("-", 60))
			for _, u := range requests {
				cmd.Printf("%-5d %-25s %s\n", u.UserID, u.UserName, u.Email)
			}
			return nil
		}

		msg, err := mgr.AcceptLibrarian(approveID)
		if err != nil {
			return err
		}
		cmd.Println(msg)
		return nil
	},
}

func init() {
	approveCmd.Flags().Int64Var(&approveID, "id", 0, "User ID of the request to approve")
	approveCmd.Flags().BoolVar(&approveList, "list", false, "Only list pending requests")
	approveCmd.Flags().StringVar(&approveEmail, "email", "", "Email to log in with when no session is stored")
}
