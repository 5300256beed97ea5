package main

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/stemsi/exstem-progress/internal/config"
	"github.com/stemsi/exstem-progress/internal/service"
)

func main() {
	cfg := config.Load()
	authService := service.NewAuthService(cfg)

	fmt.Fprintln(os.Stderr, "=== Hash Admin Password ===")

	fmt.Fprint(os.Stderr, "Enter Password: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error reading password")
		os.Exit(1)
	}
	if len(first) < 6 {
		fmt.Fprintln(os.Stderr, "Error: Password must be at least 6 characters")
		os.Exit(1)
	}

	fmt.Fprint(os.Stderr, "Confirm Password: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error reading password")
		os.Exit(1)
	}
	if string(first) != string(second) {
		fmt.Fprintln(os.Stderr, "Error: Passwords do not match")
		os.Exit(1)
	}

	hash, err := authService.HashPassword(string(first))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, "Set this as ADMIN_PASSWORD_HASH:")
	fmt.Println(hash)
}
