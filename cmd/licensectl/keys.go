package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"license-service/internal/domain"
	"license-service/internal/repository"
	"license-service/internal/usecase"
)

// errKeysRejected は1件以上のキーが有効でなかったことを示す。
var errKeysRejected = errors.New("one or more keys are not valid")

// keysCmd はキーファイル操作のコマンド群。
func keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Inspect the license key list",
	}
	cmd.AddCommand(keysCheckCmd())
	return cmd
}

// keysCheckCmd はサーバーと同じ正規化でキーをローカルのキーファイルと照合する。
func keysCheckCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "check KEY...",
		Short: "Check keys against a local key list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			catalog := usecase.NewKeyCatalog(repository.NewFileKeySource(file), usecase.WithReadAttempts(1))

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "KEY\tRESULT")

			rejected := false
			for _, raw := range args {
				result, err := checkKey(ctx, catalog, raw)
				if err != nil {
					return err
				}
				if result != "valid" {
					rejected = true
				}
				fmt.Fprintf(w, "%s\t%s\n", raw, result)
			}

			if err := w.Flush(); err != nil {
				return fmt.Errorf("failed to flush output: %w", err)
			}
			if rejected {
				return errKeysRejected
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", defaultKeysFile(), "Key list file (or set LICENSE_KEYS_FILE)")
	return cmd
}

func defaultKeysFile() string {
	if f := os.Getenv("LICENSE_KEYS_FILE"); f != "" {
		return f
	}
	return "fxlab_valid_keys.txt"
}

// checkKey は1件のキーの判定結果を返す。キーファイルが読めない場合のみエラーを返す。
func checkKey(ctx context.Context, catalog *usecase.KeyCatalog, raw string) (string, error) {
	key, err := domain.NormalizeKey(raw)
	switch {
	case errors.Is(err, domain.ErrMissingKey):
		return "malformed: empty key", nil
	case errors.Is(err, domain.ErrInvalidKeyLength):
		return fmt.Sprintf("malformed: length must be %d without dashes", domain.KeyLength), nil
	case err != nil:
		return "", err
	}

	ok, err := catalog.Contains(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "unknown", nil
	}
	return "valid", nil
}
