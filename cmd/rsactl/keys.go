package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"toy-rsa-service/internal/handler"
)

// keysCmd はテナント鍵をAPI経由で操作するコマンド群。
func keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage tenant keys through the API",
	}
	cmd.AddCommand(keysCreateCmd())
	cmd.AddCommand(keysGetCmd())
	cmd.AddCommand(keysRotateCmd())
	cmd.AddCommand(keysListCmd())
	cmd.AddCommand(keysDisableCmd())
	cmd.AddCommand(keysSignCmd())
	cmd.AddCommand(keysVerifyCmd())
	return cmd
}

func tenantPath(tenantID string, parts ...string) string {
	path := "/v1/tenants/" + url.PathEscape(tenantID) + "/keys"
	for _, p := range parts {
		path += "/" + p
	}
	return path
}

// callAPI はリクエストを送り、期待したステータスならレスポンスボディを返す。
func callAPI(cmd *cobra.Command, method, path string, body any, wantStatus int) ([]byte, error) {
	if apiURL == "" {
		return nil, fmt.Errorf("--api-url is required (or set RSACTL_API_URL)")
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(cmd.Context(), method, strings.TrimRight(apiURL, "/")+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != wantStatus {
		return nil, handleErrorResponse(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// boundBody は上限指定があるときだけリクエストボディを作る。
func boundBody(max uint64) any {
	if max == 0 {
		return nil
	}
	return handler.BoundRequest{Max: max}
}

func printRaw(cmd *cobra.Command, body []byte) {
	fmt.Fprintln(cmd.OutOrStdout(), string(bytes.TrimSpace(body)))
}

// keysCreateCmd は鍵の生成コマンド。
func keysCreateCmd() *cobra.Command {
	var tenantID string
	var max uint64
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the first key pair for a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := callAPI(cmd, http.MethodPost, tenantPath(tenantID), boundBody(max), http.StatusCreated)
			if err != nil {
				return err
			}

			if isJSON() {
				printRaw(cmd, body)
				return nil
			}
			var result handler.KeyMetadataResponse
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created key for tenant %q (generation: %d, n=%d, e=%d)\n",
				tenantID, result.Generation, result.N, result.E)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cmd.Flags().Uint64Var(&max, "max", 0, "Upper bound for the primes (optional, server default if omitted)")
	cmd.MarkFlagRequired("tenant")
	return cmd
}

// keysGetCmd は公開鍵の取得コマンド。
func keysGetCmd() *cobra.Command {
	var tenantID string
	var generation uint
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a public key for a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := tenantPath(tenantID, "current")
			if generation > 0 {
				path = tenantPath(tenantID, fmt.Sprint(generation))
			}

			body, err := callAPI(cmd, http.MethodGet, path, nil, http.StatusOK)
			if err != nil {
				return err
			}

			if isJSON() {
				printRaw(cmd, body)
				return nil
			}
			var result handler.KeyMetadataResponse
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generation: %d\nStatus:     %s\nn:          %d\ne:          %d\n",
				result.Generation, result.Status, result.N, result.E)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cmd.Flags().UintVar(&generation, "generation", 0, "Key generation (optional, defaults to current)")
	cmd.MarkFlagRequired("tenant")
	return cmd
}

// keysRotateCmd は鍵のローテーションコマンド。
func keysRotateCmd() *cobra.Command {
	var tenantID string
	var max uint64
	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Rotate the key pair for a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := callAPI(cmd, http.MethodPost, tenantPath(tenantID, "rotate"), boundBody(max), http.StatusCreated)
			if err != nil {
				return err
			}

			if isJSON() {
				printRaw(cmd, body)
				return nil
			}
			var result handler.KeyMetadataResponse
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rotated key for tenant %q (new generation: %d)\n", tenantID, result.Generation)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cmd.Flags().Uint64Var(&max, "max", 0, "Upper bound for the primes (optional, server default if omitted)")
	cmd.MarkFlagRequired("tenant")
	return cmd
}

// keysListCmd は鍵一覧の取得コマンド。
func keysListCmd() *cobra.Command {
	var tenantID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all key generations for a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := callAPI(cmd, http.MethodGet, tenantPath(tenantID), nil, http.StatusOK)
			if err != nil {
				return err
			}

			if isJSON() {
				printRaw(cmd, body)
				return nil
			}
			var result handler.KeyListResponse
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-12s %-10s %-20s %-20s %s\n", "GENERATION", "STATUS", "N", "E", "CREATED_AT")
			for _, k := range result.Keys {
				fmt.Fprintf(out, "%-12d %-10s %-20d %-20d %s\n", k.Generation, k.Status, k.N, k.E, k.CreatedAt)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cmd.MarkFlagRequired("tenant")
	return cmd
}

// keysDisableCmd は鍵の無効化コマンド。
func keysDisableCmd() *cobra.Command {
	var tenantID string
	var generation uint
	cmd := &cobra.Command{
		Use:   "disable",
		Short: "Disable a key generation for a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			if generation == 0 {
				return fmt.Errorf("--generation is required")
			}

			if _, err := callAPI(cmd, http.MethodDelete, tenantPath(tenantID, fmt.Sprint(generation)), nil, http.StatusAccepted); err != nil {
				return err
			}

			if isJSON() {
				fmt.Fprintln(cmd.OutOrStdout(), "{}")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Disabled key for tenant %q (generation: %d)\n", tenantID, generation)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cmd.Flags().UintVar(&generation, "generation", 0, "Key generation (required)")
	cmd.MarkFlagRequired("tenant")
	cmd.MarkFlagRequired("generation")
	return cmd
}

// keysSignCmd は現在の鍵での署名コマンド。
func keysSignCmd() *cobra.Command {
	var tenantID string
	var message uint64
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a message with the tenant's current key",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := handler.TenantSignRequest{Message: &message}
			body, err := callAPI(cmd, http.MethodPost, tenantPath(tenantID, "current", "sign"), req, http.StatusOK)
			if err != nil {
				return err
			}

			if isJSON() {
				printRaw(cmd, body)
				return nil
			}
			var result handler.TenantSignatureResponse
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signature: %d (generation: %d)\n", result.Signature, result.Generation)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cmd.Flags().Uint64Var(&message, "message", 0, "Message (required)")
	cmd.MarkFlagRequired("tenant")
	cmd.MarkFlagRequired("message")
	return cmd
}

// keysVerifyCmd は指定世代の鍵での署名検証コマンド。
func keysVerifyCmd() *cobra.Command {
	var tenantID string
	var generation uint
	var message, signature uint64
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a signature with a tenant key generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if generation == 0 {
				return fmt.Errorf("--generation is required")
			}

			req := handler.TenantVerifyRequest{Message: &message, Signature: &signature}
			body, err := callAPI(cmd, http.MethodPost, tenantPath(tenantID, fmt.Sprint(generation), "verify"), req, http.StatusOK)
			if err != nil {
				return err
			}

			if isJSON() {
				printRaw(cmd, body)
				return nil
			}
			var result handler.TenantVerifyResponse
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %t (decoded: %d)\n", result.Valid, result.Decoded)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cmd.Flags().UintVar(&generation, "generation", 0, "Key generation (required)")
	cmd.Flags().Uint64Var(&message, "message", 0, "Message (required)")
	cmd.Flags().Uint64Var(&signature, "signature", 0, "Signature (required)")
	cmd.MarkFlagRequired("tenant")
	cmd.MarkFlagRequired("generation")
	cmd.MarkFlagRequired("message")
	cmd.MarkFlagRequired("signature")
	return cmd
}

func handleErrorResponse(statusCode int, body []byte) error {
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&errResp); err == nil && errResp.Message != "" {
		return fmt.Errorf("Error: %s (%s)", errResp.Message, errResp.Code)
	}
	return fmt.Errorf("Error: server returned status %d", statusCode)
}
