package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/pngcipher/internal/config"
	"github.com/nao1215/pngcipher/internal/database"
	"github.com/nao1215/pngcipher/internal/keyfile"
	"github.com/nao1215/pngcipher/internal/log"
	"github.com/nao1215/pngcipher/internal/model"
	"github.com/nao1215/pngcipher/internal/pipeline"
	"github.com/nao1215/pngcipher/internal/rsa"
)

// errKeyRequired is returned by decrypt when neither --key nor --key-file
// is given.
var errKeyRequired = errors.New("a key is required (use --key or --key-file)")

// errConflictingKeys is returned when both --key and --key-file are given.
var errConflictingKeys = errors.New("--key and --key-file are mutually exclusive")

// errOutputCollision is returned when two inputs would be written to the
// same output file.
var errOutputCollision = errors.New("output path collision")

// outputSuffix names the file written next to each input.
var outputSuffix = map[pipeline.Operation]string{
	pipeline.OpEncrypt:   "encrypted",
	pipeline.OpDecrypt:   "decrypted",
	pipeline.OpAnonymize: "anonymized",
}

// NewEncryptCmd creates the encrypt command.
func NewEncryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encrypt [png-file...]",
		Short: "Encrypt the pixel data of PNG images",
		Long: `Encrypt replaces the pixel data of each image with its RSA encryption.

The result is still a valid PNG file with the original header, so image
viewers show noise instead of the picture. Unless a key is given, a new key
pair is generated, saved to the key store and its id is printed. Keep the id:
it is needed to decrypt.

Examples:
  # Encrypt with a new 2048-bit key (writes photo.encrypted.png)
  pngcipher encrypt photo.png

  # Encrypt several files with one key, 8 at a time, into out/
  pngcipher encrypt -b 8 -o out/ *.png

  # Chain blocks and reuse a stored key
  pngcipher encrypt --mode cbc --key 3fa2 photo.png

  # Also export the new key as PEM
  pngcipher encrypt --key-out photo.pem photo.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCryptCmd(cmd, args, pipeline.OpEncrypt)
		},
	}

	addCipherFlags(cmd)
	addKeyFlags(cmd)
	cmd.Flags().String("key-out", "", "Write a generated key to this PEM file")
	cmd.Flags().String("label", "", "Label stored with a generated key")
	addRunFlags(cmd)

	return cmd
}

// NewDecryptCmd creates the decrypt command.
func NewDecryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decrypt [png-file...]",
		Short: "Decrypt images produced by encrypt",
		Long: `Decrypt restores the pixel data of images produced by encrypt.

The key is taken from the key store (--key, an id or unique id prefix) or
from a PEM private key file (--key-file). The chaining mode must match the
one used to encrypt.

Examples:
  # Decrypt with a stored key (writes photo.decrypted.png)
  pngcipher decrypt --key 3fa2 photo.encrypted.png

  # Decrypt a CBC image with a PEM key
  pngcipher decrypt --mode cbc --key-file photo.pem -o photo.png photo.encrypted.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCryptCmd(cmd, args, pipeline.OpDecrypt)
		},
	}

	addCipherFlags(cmd)
	addKeyFlags(cmd)
	addRunFlags(cmd)

	return cmd
}

// NewAnonymizeCmd creates the anonymize command.
func NewAnonymizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anonymize [png-file...]",
		Short: "Remove metadata chunks from PNG images",
		Long: `Anonymize keeps only the chunks needed to display each image: the header,
the palette and the image data. Text, timestamps, EXIF, color profiles and
every other ancillary chunk are removed. Pixels are not changed.

Examples:
  # Writes photo.anonymized.png
  pngcipher anonymize photo.png

  # Anonymize into a directory
  pngcipher anonymize -o clean/ *.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCryptCmd(cmd, args, pipeline.OpAnonymize)
		},
	}

	addRunFlags(cmd)

	return cmd
}

// addCipherFlags registers the flags that shape the pixel transformation.
func addCipherFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("mode", "m", string(config.DefaultMode),
		"Block chaining mode (ecb or cbc)")
	cmd.Flags().IntP("key-bits", "k", config.DefaultKeyBits,
		"Modulus size of generated keys, a multiple of 16")
	cmd.Flags().IntP("workers", "w", 0,
		"Number of ECB workers (default: number of CPUs)")
	cmd.Flags().IntP("level", "l", config.DefaultCompressionLevel,
		"zlib compression level of the rewritten image data (-1 to 9)")
	cmd.Flags().Bool("strip", false,
		"Also remove every chunk anonymize would remove")
	cmd.Flags().Bool("progress", false,
		"Show progress when processing a single file")
}

// addKeyFlags registers the key selection flags.
func addKeyFlags(cmd *cobra.Command) {
	cmd.Flags().String("key", "", "Id or id prefix of a stored key")
	cmd.Flags().String("key-file", "", "PEM private key file")
}

// addRunFlags registers the output and batching flags.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "",
		"Output file, or output directory when several files are given")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of files processed concurrently")
	cmd.Flags().Bool("no-journal", false,
		"Do not record the operation in the journal")
}

// cryptRun holds the state of one encrypt, decrypt or anonymize run.
type cryptRun struct {
	cmd    *cobra.Command
	op     pipeline.Operation
	cfg    *config.Config
	logger *slog.Logger
	store  *database.Store
	key    *rsa.KeyPair
	keyID  string
}

// runCryptCmd executes encrypt, decrypt or anonymize.
func runCryptCmd(cmd *cobra.Command, args []string, op pipeline.Operation) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg.Verbose)
	ctx, cancel := signalContext(cmd)
	defer cancel()

	keyRef := stringFlag(cmd, "key")
	keyFile := stringFlag(cmd, "key-file")
	if keyRef != "" && keyFile != "" {
		return errConflictingKeys
	}
	if op == pipeline.OpDecrypt && keyRef == "" && keyFile == "" {
		return errKeyRequired
	}

	run := &cryptRun{cmd: cmd, op: op, cfg: cfg, logger: logger}
	tasks, err := run.tasks()
	if err != nil {
		return err
	}

	generate := op == pipeline.OpEncrypt && keyRef == "" && keyFile == ""
	if !cfg.NoJournal || keyRef != "" || generate {
		store, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		run.store = store
	}

	if op != pipeline.OpAnonymize {
		if err := run.resolveKey(ctx, keyRef, keyFile, generate); err != nil {
			return err
		}
		for i := range tasks {
			tasks[i].Key = run.key
		}
	}
	return run.execute(ctx, tasks)
}

// resolveKey loads or generates the key of the run. A generated key is saved
// to the key store before any file is touched.
func (r *cryptRun) resolveKey(ctx context.Context, keyRef, keyFile string, generate bool) error {
	out := r.cmd.OutOrStdout()

	switch {
	case keyRef != "":
		rec, err := r.store.GetKey(ctx, keyRef)
		if err != nil {
			return err
		}
		r.key, r.keyID = rec.Key, rec.ID
	case keyFile != "":
		key, err := keyfile.Load(keyFile)
		if err != nil {
			return fmt.Errorf("failed to load key file %s: %w", keyFile, err)
		}
		r.key, r.keyID = key, key.Fingerprint()
	case generate:
		fmt.Fprintf(out, "Generating %d-bit key...\n", r.cfg.KeyBits)
		gen := rsa.NewGenerator(rsa.WithGeneratorLogger(r.logger))
		key, err := gen.Generate(ctx, rsa.BlockBound(r.cfg.KeyBits/8-1), r.cfg.KeyBits)
		if err != nil {
			return fmt.Errorf("failed to generate key: %w", err)
		}

		label := stringFlag(r.cmd, "label")
		if label == "" {
			label = filepath.Base(r.cfg.Inputs[0])
		}
		id, err := r.store.SaveKey(ctx, key, label)
		if err != nil {
			return err
		}
		r.key, r.keyID = key, id

		if path := stringFlag(r.cmd, "key-out"); path != "" {
			if err := keyfile.Save(path, key); err != nil {
				return err
			}
			fmt.Fprintf(out, "Key written to %s\n", path)
		}
	}

	fmt.Fprintf(out, "Key: %s\n", r.keyID)
	return nil
}

// tasks pairs every input with its output path. Two inputs that map to the
// same output fail with errOutputCollision before anything is written.
func (r *cryptRun) tasks() ([]pipeline.Task, error) {
	multi := len(r.cfg.Inputs) > 1
	tasks := make([]pipeline.Task, 0, len(r.cfg.Inputs))
	writers := make(map[string]string, len(r.cfg.Inputs))
	for _, input := range r.cfg.Inputs {
		out := outputPath(input, r.cfg.Output, multi, r.op)
		key := filepath.Clean(out)
		if prev, ok := writers[key]; ok {
			return nil, fmt.Errorf("%w: %s and %s both write %s", errOutputCollision, prev, input, out)
		}
		writers[key] = input
		tasks = append(tasks, pipeline.Task{
			Operation: r.op,
			Input:     input,
			Output:    out,
		})
	}

	if multi && r.cfg.Output != "" {
		if err := os.MkdirAll(r.cfg.Output, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return tasks, nil
}

// outputPath returns where the result for input is written. With a single
// input, output is the file itself; otherwise it is a directory.
func outputPath(input, output string, multi bool, op pipeline.Operation) string {
	if output != "" && !multi {
		return output
	}

	base := filepath.Base(input)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if ext == "" {
		ext = ".png"
	}
	for _, o := range []pipeline.Operation{pipeline.OpEncrypt, pipeline.OpDecrypt, pipeline.OpAnonymize} {
		if trimmed, ok := strings.CutSuffix(stem, "."+outputSuffix[o]); ok {
			stem = trimmed
			break
		}
	}
	name := stem + "." + outputSuffix[op] + ext

	if output != "" {
		return filepath.Join(output, name)
	}
	return filepath.Join(filepath.Dir(input), name)
}

// processor returns the factory the batch uses for every file.
func (r *cryptRun) processor(total int) func(onLog model.LogFunc) *pipeline.Processor {
	showProgress := false
	if hasFlag(r.cmd, "progress") {
		showProgress, _ = r.cmd.Flags().GetBool("progress") //nolint:errcheck // flag is registered
	}
	errOut := r.cmd.ErrOrStderr()

	return func(onLog model.LogFunc) *pipeline.Processor {
		opts := []pipeline.ProcessorOption{
			pipeline.WithOptions(pipeline.Options{
				Mode:              r.cfg.Mode,
				KeyBits:           r.cfg.KeyBits,
				Workers:           r.cfg.Workers,
				CompressionLevel:  r.cfg.CompressionLevel,
				ProgressThreshold: r.cfg.ProgressThreshold,
				Strip:             r.cfg.Strip,
			}),
			pipeline.WithLogFunc(model.Tee(onLog, log.Callback(r.logger))),
			pipeline.WithProcessorLogger(r.logger),
		}
		if showProgress && total == 1 {
			opts = append(opts, pipeline.WithProgress(progressPrinter(errOut)))
		}
		return pipeline.NewProcessor(opts...)
	}
}

// progressPrinter redraws a percentage on one terminal line.
func progressPrinter(w io.Writer) model.ProgressFunc {
	return func(fraction float64) {
		fmt.Fprintf(w, "\r%3.0f%%", fraction*100)
		if fraction >= 1 {
			fmt.Fprintln(w)
		}
	}
}

// execute runs the tasks and reports each outcome as it completes.
func (r *cryptRun) execute(ctx context.Context, tasks []pipeline.Task) error {
	bp := pipeline.NewBatchProcessor(
		r.processor(len(tasks)),
		pipeline.WithConcurrency(r.cfg.BatchSize),
		pipeline.WithBatchLogger(r.logger),
	)

	startTime := time.Now()
	var (
		mu       sync.Mutex
		failures []error
	)
	err := bp.ProcessBatchWithCallback(ctx, tasks, func(outcome *pipeline.Outcome, index int) {
		mu.Lock()
		defer mu.Unlock()

		r.report(outcome, index, len(tasks))
		if outcome.Err != nil {
			failures = append(failures, fmt.Errorf("%s %s: %w", r.op, outcome.Task.Input, outcome.Err))
		}
		r.journal(ctx, outcome)
	})
	if err != nil {
		return err
	}

	if len(tasks) > 1 {
		fmt.Fprintf(r.cmd.OutOrStdout(), "\n%d of %d files completed in %s\n",
			len(tasks)-len(failures), len(tasks), time.Since(startTime).Round(time.Millisecond))
	}

	switch len(failures) {
	case 0:
		return nil
	case 1:
		return failures[0]
	default:
		return fmt.Errorf("%d of %d files failed: %w", len(failures), len(tasks), errors.Join(failures...))
	}
}

// report prints one outcome.
func (r *cryptRun) report(outcome *pipeline.Outcome, index, total int) {
	prefix := ""
	if total > 1 {
		prefix = fmt.Sprintf("[%d/%d] ", index+1, total)
	}

	if outcome.Err != nil {
		fmt.Fprintf(r.cmd.ErrOrStderr(), "%s%s failed for %s: %v\n", prefix, r.op, outcome.Task.Input, outcome.Err)
		return
	}

	line := fmt.Sprintf("%s%s -> %s (%s)", prefix, outcome.Task.Input, outcome.Task.Output,
		outcome.Elapsed.Round(time.Millisecond))
	if n := len(outcome.Entries); n > 0 {
		line += fmt.Sprintf(", %d warnings", n)
	}
	fmt.Fprintln(r.cmd.OutOrStdout(), line)
}

// journal records the outcome unless journaling is disabled.
func (r *cryptRun) journal(ctx context.Context, outcome *pipeline.Outcome) {
	if r.store == nil || r.cfg.NoJournal {
		return
	}

	rec := &database.OperationRecord{
		Operation: string(r.op),
		Input:     outcome.Task.Input,
		Output:    outcome.Task.Output,
		KeyID:     r.keyID,
		Elapsed:   outcome.Elapsed,
		Warnings:  len(outcome.Entries),
	}
	if r.op != pipeline.OpAnonymize {
		rec.Mode = string(r.cfg.Mode)
	}
	if outcome.Err != nil {
		rec.Error = outcome.Err.Error()
	}

	// The journal uses its own context so interrupted runs are still recorded.
	if _, err := r.store.RecordOperation(context.WithoutCancel(ctx), rec); err != nil {
		r.logger.Error("failed to record operation", "input", outcome.Task.Input, "error", err)
	}
}
