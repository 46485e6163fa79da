package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/pngcipher/internal/config"
	"github.com/nao1215/pngcipher/internal/database"
	"github.com/nao1215/pngcipher/internal/keyfile"
	"github.com/nao1215/pngcipher/internal/rsa"
)

// NewKeysCmd creates the keys command and its subcommands.
func NewKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage stored keys and the operation journal",
		Long: `Keys manages the key pairs kept in the key store.

Keys are identified by the SHA3-256 fingerprint of their public half. Any
unique prefix of the id may be used in place of the full id.

Examples:
  pngcipher keys list
  pngcipher keys generate --key-bits 4096 --label backups
  pngcipher keys export 3fa2 -o backups.pem
  pngcipher keys import --label laptop laptop.pem
  pngcipher keys history 3fa2`,
	}

	cmd.AddCommand(newKeysListCmd())
	cmd.AddCommand(newKeysShowCmd())
	cmd.AddCommand(newKeysGenerateCmd())
	cmd.AddCommand(newKeysImportCmd())
	cmd.AddCommand(newKeysExportCmd())
	cmd.AddCommand(newKeysDeleteCmd())
	cmd.AddCommand(newKeysHistoryCmd())

	return cmd
}

// withStore builds the configuration, opens the key store and runs fn.
func withStore(cmd *cobra.Command, fn func(cfg *config.Config, store *database.Store, logger *slog.Logger) error) error {
	cfg, err := buildConfig(cmd, nil)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd, cfg.Verbose)

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(cfg, store, logger)
}

// shortID abbreviates a fingerprint for tables.
func shortID(id string) string {
	if len(id) > 16 {
		return id[:16]
	}
	return id
}

func newKeysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(_ *config.Config, store *database.Store, _ *slog.Logger) error {
				keys, err := store.ListKeys(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(keys) == 0 {
					fmt.Fprintln(out, "No keys stored.")
					return nil
				}
				fmt.Fprintf(out, "%-16s %6s  %-20s %s\n", "ID", "BITS", "CREATED", "LABEL")
				for _, k := range keys {
					fmt.Fprintf(out, "%-16s %6d  %-20s %s\n",
						shortID(k.ID), k.Bits, k.Created.Format(time.DateTime), k.Label)
				}
				return nil
			})
		},
	}
}

func newKeysShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored key and its public half",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(_ *config.Config, store *database.Store, _ *slog.Logger) error {
				rec, err := store.GetKey(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				pub, err := keyfile.EncodePublic(rec.Key.Public())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:      %s\n", rec.ID)
				fmt.Fprintf(out, "Label:   %s\n", rec.Label)
				fmt.Fprintf(out, "Bits:    %d\n", rec.Bits)
				fmt.Fprintf(out, "Created: %s\n", rec.Created.Format(time.DateTime))
				fmt.Fprintf(out, "Block:   %d plaintext / %d ciphertext bytes\n",
					rec.Key.Public().BlockSize(), rec.Key.Public().ModulusBytes())
				fmt.Fprintf(out, "\n%s", pub)
				return nil
			})
		},
	}
}

func newKeysGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate and store a new key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(cfg *config.Config, store *database.Store, logger *slog.Logger) error {
				if err := cfg.ValidateCipher(); err != nil {
					return fmt.Errorf("configuration error: %w", err)
				}

				key, err := rsa.NewGenerator(rsa.WithGeneratorLogger(logger)).Generate(cmd.Context(), rsa.BlockBound(cfg.KeyBits/8-1), cfg.KeyBits)
				if err != nil {
					return fmt.Errorf("failed to generate key: %w", err)
				}

				label, err := cmd.Flags().GetString("label")
				if err != nil {
					return err
				}
				id, err := store.SaveKey(cmd.Context(), key, label)
				if err != nil {
					return err
				}

				if path := stringFlag(cmd, "key-out"); path != "" {
					if err := keyfile.Save(path, key); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Key: %s\n", id)
				return nil
			})
		},
	}

	cmd.Flags().IntP("key-bits", "k", config.DefaultKeyBits,
		"Modulus size, a multiple of 16")
	cmd.Flags().String("label", "", "Label stored with the key")
	cmd.Flags().String("key-out", "", "Also write the key to this PEM file")

	return cmd
}

func newKeysImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <pem-file>",
		Short: "Import a PEM private key into the key store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(_ *config.Config, store *database.Store, _ *slog.Logger) error {
				key, err := keyfile.Load(args[0])
				if err != nil {
					return fmt.Errorf("failed to load key file %s: %w", args[0], err)
				}

				label, err := cmd.Flags().GetString("label")
				if err != nil {
					return err
				}
				id, err := store.SaveKey(cmd.Context(), key, label)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Key: %s\n", id)
				return nil
			})
		},
	}

	cmd.Flags().String("label", "", "Label stored with the key")

	return cmd
}

func newKeysExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a stored key as PEM",
		Long: `Export writes the key pair as a PKCS#1 PEM private key, or only its public
half with --public. Without -o the PEM block goes to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(cfg *config.Config, store *database.Store, _ *slog.Logger) error {
				rec, err := store.GetKey(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				public, err := cmd.Flags().GetBool("public")
				if err != nil {
					return err
				}
				var data []byte
				if public {
					data, err = keyfile.EncodePublic(rec.Key.Public())
				} else {
					data, err = keyfile.Encode(rec.Key)
				}
				if err != nil {
					return err
				}

				if cfg.Output == "" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				f, err := createOutputFile(cfg.Output)
				if err != nil {
					return err
				}
				defer f.Close()
				if _, err := f.Write(data); err != nil {
					return fmt.Errorf("failed to write key file: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Key written to %s\n", cfg.Output)
				return nil
			})
		},
	}

	cmd.Flags().StringP("output", "o", "", "Write the key to this file")
	cmd.Flags().Bool("public", false, "Export only the public half")

	return cmd
}

func newKeysDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored key",
		Long: `Delete removes a key from the key store. Images encrypted with it can no
longer be decrypted unless the key was exported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(_ *config.Config, store *database.Store, _ *slog.Logger) error {
				rec, err := store.GetKey(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := store.DeleteKey(cmd.Context(), rec.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted key %s\n", rec.ID)
				return nil
			})
		},
	}
}

func newKeysHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "List recorded operations",
		Long: `History lists journaled encrypt, decrypt and anonymize runs, newest first.
With an id, only runs that used that key are listed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(_ *config.Config, store *database.Store, _ *slog.Logger) error {
				keyID := ""
				if len(args) == 1 {
					rec, err := store.GetKey(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					keyID = rec.ID
				}

				limit, err := cmd.Flags().GetInt("limit")
				if err != nil {
					return err
				}
				ops, err := store.ListOperations(cmd.Context(), keyID, limit)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(ops) == 0 {
					fmt.Fprintln(out, "No operations recorded.")
					return nil
				}
				fmt.Fprintf(out, "%-20s %-10s %-4s %-16s %10s  %s\n",
					"TIME", "OPERATION", "MODE", "KEY", "ELAPSED", "FILES")
				for _, op := range ops {
					status := op.Input + " -> " + op.Output
					if op.Error != "" {
						status = op.Input + ": " + strings.TrimSpace(op.Error)
					}
					fmt.Fprintf(out, "%-20s %-10s %-4s %-16s %10s  %s\n",
						op.Timestamp.Format(time.DateTime),
						op.Operation,
						op.Mode,
						shortID(op.KeyID),
						op.Elapsed.Round(time.Millisecond),
						status,
					)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum number of entries (0 for all)")

	return cmd
}
