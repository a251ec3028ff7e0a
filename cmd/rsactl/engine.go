package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"toy-rsa-service/config"
	"toy-rsa-service/internal/handler"
	"toy-rsa-service/internal/rsacore"
	"toy-rsa-service/internal/usecase"
)

// newCryptoService は DEFAULT_KEY_BOUND を既定上限とするサービスを返す。
func newCryptoService() *usecase.CryptoService {
	return usecase.NewCryptoService(rsacore.DefaultRand, config.Load().DefaultKeyBound)
}

// primeCmd は素数生成コマンド。
func primeCmd() *cobra.Command {
	var max uint64
	cmd := &cobra.Command{
		Use:   "prime",
		Short: "Generate a probable prime in [2, max]",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newCryptoService().GeneratePrime(cmd.Context(), max)
			if err != nil {
				return fmt.Errorf("generating prime: %w", err)
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), handler.PrimeResponse{Prime: p})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Prime: %d\n", p)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&max, "max", 0, "Upper bound for the prime (0 uses DEFAULT_KEY_BOUND)")
	return cmd
}

// keygenCmd は鍵ペア生成コマンド。鍵は表示するだけで保存しない。
func keygenCmd() *cobra.Command {
	var max uint64
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an ephemeral key pair from primes up to max",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := newCryptoService().GenerateKeyPair(cmd.Context(), max)
			if err != nil {
				return fmt.Errorf("generating key pair: %w", err)
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), handler.KeyPairResponse{
					Public:  handler.PublicKeyResponse{N: kp.Public.N, E: kp.Public.E},
					Private: handler.PrivateKeyResponse{N: kp.Private.N, D: kp.Private.D},
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Public key:  (n=%d, e=%d)\n", kp.Public.N, kp.Public.E)
			fmt.Fprintf(cmd.OutOrStdout(), "Private key: (n=%d, d=%d)\n", kp.Private.N, kp.Private.D)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&max, "max", 0, "Upper bound for both primes (0 uses DEFAULT_KEY_BOUND)")
	return cmd
}

// signCmd は秘密鍵 (n, d) での署名コマンド。
func signCmd() *cobra.Command {
	var message, n, d uint64
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a message with a private key (n, d)",
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := newCryptoService().Sign(cmd.Context(), message, rsacore.PrivateKey{N: n, D: d})
			if err != nil {
				return fmt.Errorf("signing: %w", err)
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), handler.SignatureResponse{Signature: sig})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signature: %d\n", sig)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&message, "message", 0, "Message (required)")
	cmd.Flags().Uint64Var(&n, "n", 0, "Modulus (required)")
	cmd.Flags().Uint64Var(&d, "d", 0, "Private exponent (required)")
	cmd.MarkFlagRequired("message")
	cmd.MarkFlagRequired("n")
	cmd.MarkFlagRequired("d")
	return cmd
}

// decodeCmd は公開鍵 (n, e) で署名からメッセージを復元するコマンド。
func decodeCmd() *cobra.Command {
	var signature, n, e uint64
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Recover the message from a signature with a public key (n, e)",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newCryptoService().Decode(cmd.Context(), signature, rsacore.PublicKey{N: n, E: e})
			if err != nil {
				return fmt.Errorf("decoding: %w", err)
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), handler.DecodeResponse{Message: m})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Message: %d\n", m)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&signature, "signature", 0, "Signature (required)")
	cmd.Flags().Uint64Var(&n, "n", 0, "Modulus (required)")
	cmd.Flags().Uint64Var(&e, "e", 0, "Public exponent (required)")
	cmd.MarkFlagRequired("signature")
	cmd.MarkFlagRequired("n")
	cmd.MarkFlagRequired("e")
	return cmd
}

// verifyCmd は署名検証コマンド。
func verifyCmd() *cobra.Command {
	var message, signature, n, e uint64
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a signature against a message with a public key (n, e)",
		RunE: func(cmd *cobra.Command, args []string) error {
			valid, err := newCryptoService().Verify(cmd.Context(), message, signature, rsacore.PublicKey{N: n, E: e})
			if err != nil {
				return fmt.Errorf("verifying: %w", err)
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), handler.VerifyResponse{Valid: valid})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %t\n", valid)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&message, "message", 0, "Message (required)")
	cmd.Flags().Uint64Var(&signature, "signature", 0, "Signature (required)")
	cmd.Flags().Uint64Var(&n, "n", 0, "Modulus (required)")
	cmd.Flags().Uint64Var(&e, "e", 0, "Public exponent (required)")
	cmd.MarkFlagRequired("message")
	cmd.MarkFlagRequired("signature")
	cmd.MarkFlagRequired("n")
	cmd.MarkFlagRequired("e")
	return cmd
}
