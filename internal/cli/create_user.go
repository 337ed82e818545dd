// Package cli holds the administrative commands that run outside the HTTP
// server.
package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/avolkov/libris/internal/auth"
	"github.com/avolkov/libris/internal/config"
	"github.com/avolkov/libris/internal/database"
	"github.com/avolkov/libris/internal/entities"
)

// CreateUserCommand creates a staff account directly in the database, for
// bootstrapping or when the admin password is lost.
type CreateUserCommand struct {
	Username     string
	Password     string
	Role         string
	DatabasePath string
}

func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username for the new account (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password for the new account (required)")
	fs.StringVar(&cmd.Role, "role", string(entities.RoleLibrarian), "Role: admin or librarian")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a staff account.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s create-user -username anna -password 'long passphrase' -role librarian\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s create-user -username root -password 'long passphrase' -role admin -db ./libris.db\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" || cmd.Password == "" {
		fs.Usage()
		return fmt.Errorf("username and password are required")
	}
	return nil
}

func (cmd *CreateUserCommand) Run() error {
	cfg := config.NewConfig()
	cfg.Database.Path = cmd.DatabasePath

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	service := auth.NewService(db.DB, cfg.Auth)
	user, err := service.CreateUser(cmd.Username, cmd.Password, entities.UserRole(cmd.Role))
	if err != nil {
		return err
	}

	fmt.Printf("Created %s account %q (%s)\n", user.Role, user.Username, user.ID)
	return nil
}
