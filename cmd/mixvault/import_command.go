package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mixvault/internal/config"
	"mixvault/internal/database"
	"mixvault/internal/dedup"
	"mixvault/internal/queue"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Stage raw mixes from a JSON file",
		Long: "Stage raw mixes from a JSON file containing one raw mix object or an array of them.\n" +
			"Use - to read from stdin. Staged mixes start pending.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			items, err := decodeRawMixes(data)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return fmt.Errorf("no raw mixes found in %s", args[0])
			}
			return ctx.withDB(func(_ *config.Config, db *database.DB) error {
				store := queue.New(db)
				ids := make([]int64, 0, len(items))
				for i, item := range items {
					if !dedup.KnownProvider(item.Provider) {
						fmt.Fprintf(cmd.ErrOrStderr(), "warning: raw mix %d has unknown provider %q; it will not be deduplicated\n", i+1, item.Provider)
					}
					raw, err := store.Insert(commandCtx(cmd), item)
					if err != nil {
						return fmt.Errorf("stage raw mix %d: %w", i+1, err)
					}
					ids = append(ids, raw.ID)
				}
				if jsonOut {
					return writeJSON(cmd, struct {
						IDs []int64 `json:"ids"`
					}{ids})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Staged %d raw mix(es)\n", len(ids))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output staged ids as JSON")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func decodeRawMixes(data []byte) ([]queue.NewRawMix, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var items []queue.NewRawMix
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode raw mixes: %w", err)
		}
		return items, nil
	}
	var item queue.NewRawMix
	if err := json.Unmarshal(trimmed, &item); err != nil {
		return nil, fmt.Errorf("decode raw mix: %w", err)
	}
	return []queue.NewRawMix{item}, nil
}
