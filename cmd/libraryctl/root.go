package main

import "github.com/spf13/cobra"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "libraryctl",
	Short:         "Libraryctl is the staff-side companion for the LibraryMaster backend.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the config file")
	rootCmd.AddCommand(importCmd, approveCmd, updateCopiesCmd)
}
