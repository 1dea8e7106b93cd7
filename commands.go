package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-authgate/idgate/internal/auth"
	"github.com/go-authgate/idgate/internal/config"
	"github.com/go-authgate/idgate/internal/services"
	"github.com/go-authgate/idgate/internal/token"
)

var (
	errEmptyPassword    = errors.New("no password provided on stdin")
	errPasswordTooShort = fmt.Errorf(
		"password must be at least %d characters",
		services.MinPasswordLength,
	)
)

// runHashPassword reads one line from in and prints its argon2id hash
// together with hints for using it as the initial admin password
func runHashPassword(in io.Reader, out io.Writer) error {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errEmptyPassword
	}
	if utf8.RuneCountInString(password) < services.MinPasswordLength {
		return errPasswordTooShort
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	fmt.Fprintln(out, hash)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Use it as the initial administrator password hash:")
	fmt.Fprintf(out, "  INITIAL_ADMIN_PASSWORD_HASH='%s'\n", hash)
	fmt.Fprintln(out, `or as "password_hash" in initial_admin.json`)
	return nil
}

// runInspectToken prints the claims of a token without trusting them and
// then reports whether signature, issuer and expiry checks pass
func runInspectToken(ctx context.Context, cfg *config.Config, raw string, out io.Writer) error {
	provider := token.NewLocalTokenProvider(cfg)

	claims, err := provider.DecodeUnverified(raw)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Claims (unverified):")
	fmt.Fprintf(out, "  sub:   %s\n", claims.Subject)
	fmt.Fprintf(out, "  email: %s\n", claims.Email)
	fmt.Fprintf(out, "  role:  %s\n", claims.Role)
	fmt.Fprintf(out, "  iss:   %s\n", claims.Issuer)
	fmt.Fprintf(out, "  iat:   %s\n", formatTime(claims.IssuedAt))
	fmt.Fprintf(out, "  exp:   %s\n", formatTime(claims.ExpiresAt))

	if _, err := provider.Validate(ctx, raw); err != nil {
		fmt.Fprintf(out, "Valid: no (%v)\n", err)
		return nil
	}
	fmt.Fprintln(out, "Valid: yes")
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
