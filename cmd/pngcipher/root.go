package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/pngcipher/internal/config"
)

// NewRootCmd creates the root command for pngcipher.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pngcipher",
		Short: "Encrypt, decrypt, anonymize and inspect PNG images",
		Long: `pngcipher rewrites the pixel data of PNG images while keeping them valid PNG files.

encrypt replaces the pixels with their RSA encryption, decrypt restores them,
anonymize drops every chunk that is not needed to display the image, and
inspect lists the chunks and metadata a file carries.

Keys and an operation journal are kept in a SQLite database in the XDG data
directory unless --db-dir says otherwise.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .pngcipher in current or home directory)")
	cmd.PersistentFlags().StringP("profile", "P", "",
		"Configuration profile to apply")
	cmd.PersistentFlags().String("db-dir", config.XDGDataDir(),
		"Directory holding the key store database")

	cmd.AddCommand(NewEncryptCmd())
	cmd.AddCommand(NewDecryptCmd())
	cmd.AddCommand(NewAnonymizeCmd())
	cmd.AddCommand(NewInspectCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewKeysCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
