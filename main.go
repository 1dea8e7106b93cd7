//	@title			IDGate API
//	@version		1.0
//	@description	Multi-provider authentication and identity service (local password, Google OAuth, LDAP)

//	@license.name	MIT

//	@host		localhost:8080
//	@BasePath	/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and JWT token.

//go:generate go run github.com/swaggo/swag/cmd/swag init -g main.go -o api --outputTypes go,json

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-authgate/idgate/internal/bootstrap"
	"github.com/go-authgate/idgate/internal/config"
	"github.com/go-authgate/idgate/internal/version"
)

func main() {
	// Define flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Usage = printUsage
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		version.PrintVersion()
		os.Exit(0)
	}

	// Check if command is provided
	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Handle subcommands
	switch args[0] {
	case "server":
		runServer()
	case "hash-password":
		if err := runHashPassword(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "inspect-token":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: idgate inspect-token <token>")
			os.Exit(1)
		}
		if err := runInspectToken(context.Background(), config.Load(), args[1], os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Usage: %s [OPTIONS] COMMAND\n\n", os.Args[0])
	fmt.Println("Identity service with local, Google and LDAP sign-in")
	fmt.Println("\nCommands:")
	fmt.Println("  server                 Start the identity server")
	fmt.Println("  hash-password          Read a password from stdin and print its argon2id hash")
	fmt.Println("  inspect-token <token>  Decode a token and report whether it validates")
	fmt.Println("\nOptions:")
	fmt.Println("  -v, --version    Show version information")
	fmt.Println("  -h, --help       Show this help message")
}

func runServer() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bootstrap.Run(ctx, cfg); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
