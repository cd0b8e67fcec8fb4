package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/assetpipe/assetpipe/internal/asset"
)

var (
	ingestName string
	ingestSave bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest an asset from a file, inline payload or remote URL",
}

var ingestFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Ingest a file from the local filesystem",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestFile,
}

var ingestDataCmd = &cobra.Command{
	Use:   "data <payload|@file>",
	Short: "Ingest an inline payload (raw bytes or a data URL)",
	Long: `Ingest an inline payload under the name given with --name. The
payload is read from the argument, or from a file when the argument
starts with @. A payload with a data: scheme is base64-decoded first.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngestData,
}

var ingestLinkCmd = &cobra.Command{
	Use:   "link <url>",
	Short: "Resolve a remote URL into asset info",
	Long: `Resolve a remote URL into a partial asset record. YouTube and Vimeo
URLs yield provider embeds; anything else is fetched directly. With
--save the resolved payload is persisted through the pipeline.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngestLink,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <name>...",
	Short: "Delete stored assets and their thumbnails",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

func init() {
	ingestFileCmd.Flags().StringVar(&ingestName, "name", "", "desired asset name (defaults to the file's base name)")
	ingestDataCmd.Flags().StringVar(&ingestName, "name", "", "desired asset name (required)")
	_ = ingestDataCmd.MarkFlagRequired("name")
	ingestLinkCmd.Flags().BoolVar(&ingestSave, "save", false, "persist the resolved asset")

	ingestCmd.AddCommand(ingestFileCmd)
	ingestCmd.AddCommand(ingestDataCmd)
	ingestCmd.AddCommand(ingestLinkCmd)
}

func runIngestFile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, cleanup, err := newFilesService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	name := ingestName
	if name == "" {
		name = filepath.Base(args[0])
	}
	record, err := svc.Upload(ctx, args[0], name)
	if err != nil {
		return err
	}
	return printRecord(record)
}

func runIngestData(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, cleanup, err := newFilesService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	payload := []byte(args[0])
	if strings.HasPrefix(args[0], "@") {
		payload, err = os.ReadFile(args[0][1:])
		if err != nil {
			return fmt.Errorf("read payload file: %w", err)
		}
	}
	record, err := svc.SaveData(ctx, payload, ingestName)
	if err != nil {
		return err
	}
	return printRecord(record)
}

func runIngestLink(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, cleanup, err := newFilesService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	record, err := svc.Link(ctx, args[0])
	if err != nil {
		return err
	}

	if ingestSave {
		if record.IsEmbed() {
			record, err = svc.SaveEmbed(ctx, record)
		} else {
			record, err = svc.SaveData(ctx, []byte(record.Data), record.Name)
		}
		if err != nil {
			return err
		}
	}
	return printRecord(record)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, cleanup, err := newFilesService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	for _, name := range args {
		if err := svc.Delete(ctx, asset.Record{Name: name}); err != nil {
			return fmt.Errorf("delete %s: %w", name, err)
		}
		fmt.Printf("deleted %s\n", name)
	}
	return nil
}

func printRecord(record asset.Record) error {
	// The data payload can be megabytes of base64; keep stdout readable.
	record.Data = ""
	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
