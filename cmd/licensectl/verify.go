package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"license-service/internal/handler"
	"license-service/pkg/httputil"
)

// errLicenseRejected は検証結果が valid:false だったことを示す。終了コードに反映する。
var errLicenseRejected = errors.New("license rejected")

// verifyCmd はライセンスキーの検証コマンド。
func verifyCmd() *cobra.Command {
	var key, device string
	var activate bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a license key against the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, key, device, activate)
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "License key (required)")
	cmd.Flags().StringVar(&device, "device", "", "Device ID (defaults to unknown on the server)")
	cmd.Flags().BoolVar(&activate, "activate", false, "Bind the key to the device")
	cmd.MarkFlagRequired("key")
	return cmd
}

// activateCmd は verify --activate の短縮形。
func activateCmd() *cobra.Command {
	var key, device string
	cmd := &cobra.Command{
		Use:   "activate",
		Short: "Activate a license key on a device",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, key, device, true)
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "License key (required)")
	cmd.Flags().StringVar(&device, "device", "", "Device ID")
	cmd.MarkFlagRequired("key")
	return cmd
}

func runVerify(cmd *cobra.Command, key, device string, activate bool) error {
	if apiURL == "" {
		return fmt.Errorf("--api-url is required (or set LICENSECTL_API_URL)")
	}

	query := url.Values{"key": {key}}
	if device != "" {
		query.Set("deviceId", device)
	}
	if activate {
		query.Set("activate", "true")
	}
	endpoint := strings.TrimRight(apiURL, "/") + handler.VerifyPath + "?" + query.Encode()

	resp, err := httpClient.Get(endpoint)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return handleErrorResponse(resp.StatusCode, body)
	}

	var result handler.VerifyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	out := cmd.OutOrStdout()
	if output == "json" {
		fmt.Fprintln(out, strings.TrimSpace(string(body)))
	} else if result.Valid {
		fmt.Fprintf(out, "valid: %s\n", result.Message)
	} else {
		fmt.Fprintf(out, "invalid: %s\n", result.Message)
	}

	if !result.Valid {
		return errLicenseRejected
	}
	return nil
}

func handleErrorResponse(statusCode int, body []byte) error {
	var errResp httputil.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		if errResp.Error != "" {
			return fmt.Errorf("Error: %s (%s)", errResp.Message, errResp.Error)
		}
		return fmt.Errorf("Error: %s", errResp.Message)
	}
	return fmt.Errorf("Error: server returned status %d", statusCode)
}
