// Command adduser creates a staff account directly in the database.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"venue-manager/auth"
	"venue-manager/db"
	"venue-manager/models"
	"venue-manager/utils"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "config.json", "Configuration file")
	dbPath := fs.String("db", "", "SQLite database file (overrides the configuration)")
	email := fs.String("email", "", "Email address used to log in")
	name := fs.String("name", "", "Full name (defaults to the part of the email before @)")
	roleFlag := fs.String("role", string(models.RoleWorker), "Role: owner, manager or worker")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	addr := strings.ToLower(strings.TrimSpace(*email))
	if addr == "" {
		fmt.Fprintln(stdout, "Usage: adduser -email <email> [-name <name>] [-role worker|manager|owner] [-password <password>] [-config <file>] [-db <sqlite file>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}
	if !strings.Contains(addr, "@") {
		return fmt.Errorf("invalid email %q", addr)
	}
	role := models.Role(strings.ToLower(*roleFlag))
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", *roleFlag)
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if err := auth.ValidatePassword(password); err != nil {
		return err
	}

	cfg, err := utils.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.Database.Driver = utils.DriverSQLite
		cfg.Database.Path = *dbPath
	}

	store, err := db.Open(cfg.Database.Driver, cfg.Database.GetDSN(), nil)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()
	if _, err := store.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	ctx := context.Background()
	if _, err := store.GetUserByEmail(ctx, addr); err == nil {
		return fmt.Errorf("user %s already exists", addr)
	} else if !errors.Is(err, db.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	fullName := strings.TrimSpace(*name)
	if fullName == "" {
		fullName = addr[:strings.Index(addr, "@")]
	}
	user := &models.User{Email: addr, FullName: fullName, PasswordHash: hash, Role: role, IsActive: true}
	if err := store.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created with role %s (ID %d)\n", user.Email, user.Role, user.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
