// Command admin provides operator utilities: key generation, API tokens and the
// off-chain signatures accepted by redemption and the dispenser.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"tribehub/internal/config"
	"tribehub/internal/middleware"
	"tribehub/internal/models"
	"tribehub/internal/signature"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin keygen                                         - Generate a signing key")
		fmt.Println("  go run ./cmd/admin token <address> [hours]                        - Issue an API token")
		fmt.Println("  go run ./cmd/admin sign-redemption <key> <account> <points> <id>  - Sign a redemption")
		fmt.Println("  go run ./cmd/admin sign-spend <key> <org> <recipient> <amount> <reason> - Sign a dispenser spend")
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "keygen":
		err = keygen()
	case "token":
		err = issueToken(os.Args[2:])
	case "sign-redemption":
		err = signRedemption(os.Args[2:])
	case "sign-spend":
		err = signSpend(os.Args[2:])
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func keygen() error {
	s, err := signature.GenerateSigner()
	if err != nil {
		return err
	}
	fmt.Printf("address:     %s\n", s.Address())
	fmt.Printf("private key: %s\n", s.PrivateKeyHex())
	return nil
}

func issueToken(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: token <address> [hours]")
	}
	account, err := models.ParseAddress(args[0])
	if err != nil {
		return err
	}
	ttl := middleware.DefaultTokenTTL
	if len(args) > 1 {
		hours, err := strconv.Atoi(args[1])
		if err != nil || hours <= 0 {
			return fmt.Errorf("invalid hours %q", args[1])
		}
		ttl = time.Duration(hours) * time.Hour
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	token, err := middleware.NewAuthenticator(cfg.JWTSecret).IssueToken(account, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func signRedemption(args []string) error {
	if len(args) < 4 {
		return fmt.Errorf("usage: sign-redemption <key> <account> <points> <collectible_id>")
	}
	signer, err := signature.SignerFromHex(args[0])
	if err != nil {
		return err
	}
	account, err := models.ParseAddress(args[1])
	if err != nil {
		return err
	}
	points, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid points: %w", err)
	}
	id, err := strconv.ParseUint(args[3], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid collectible id: %w", err)
	}
	fmt.Println(signer.SignHex(signature.RedemptionDigest(account, points, uint(id))))
	return nil
}

func signSpend(args []string) error {
	if len(args) < 5 {
		return fmt.Errorf("usage: sign-spend <key> <org> <recipient> <amount> <reason>")
	}
	signer, err := signature.SignerFromHex(args[0])
	if err != nil {
		return err
	}
	org, err := models.ParseAddress(args[1])
	if err != nil {
		return err
	}
	recipient, err := models.ParseAddress(args[2])
	if err != nil {
		return err
	}
	amount, err := strconv.ParseInt(args[3], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	fmt.Println(signer.SignHex(signature.DispenserDigest(org, recipient, amount, args[4])))
	return nil
}
