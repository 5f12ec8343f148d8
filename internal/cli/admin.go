package cli

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/vitrina-host/vitrina/internal/config"
	"github.com/vitrina-host/vitrina/internal/database"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage console admins",
	Long:  `Manage admin accounts for the web console. Create admins and reset passwords.`,
}

var adminCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create a new admin",
	Long: `Create a new admin account for the web console.

Example:
  vitrina admin create alice`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdminCreate(args[0])
	},
}

var adminPasswdCmd = &cobra.Command{
	Use:   "passwd <username>",
	Short: "Reset an admin's password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdminPasswd(args[0])
	},
}

func connectDB() (func(), error) {
	cleanup := func() {}
	if database.DB != nil {
		return cleanup, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return cleanup, err
	}
	if err := database.Connect(cfg.DatabaseURL); err != nil {
		return cleanup, fmt.Errorf("database connection failed: %w", err)
	}
	return func() { _ = database.Close() }, nil
}

func runAdminCreate(username string) error {
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters long")
	}

	cleanup, err := connectDB()
	if err != nil {
		return err
	}
	defer cleanup()

	var exists bool
	err = database.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM admins WHERE username = $1)", username).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check existing admin: %w", err)
	}
	if exists {
		return fmt.Errorf("admin '%s' already exists", username)
	}

	hash, err := promptPasswordHash()
	if err != nil {
		return err
	}

	if _, err := database.DB.Exec(`
		INSERT INTO admins (username, password_hash) VALUES ($1, $2)
	`, username, hash); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	fmt.Printf("\n✓ Admin '%s' created successfully\n", username)
	return nil
}

func runAdminPasswd(username string) error {
	cleanup, err := connectDB()
	if err != nil {
		return err
	}
	defer cleanup()

	hash, err := promptPasswordHash()
	if err != nil {
		return err
	}

	res, err := database.DB.Exec(`
		UPDATE admins SET password_hash = $1 WHERE username = $2
	`, hash, username)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("admin '%s' not found", username)
	}

	fmt.Printf("✓ Password updated for '%s'\n", username)
	return nil
}

func promptPasswordHash() (string, error) {
	password, err := readPassword("Password: ")
	if err != nil {
		return "", err
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	if len(password) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters long")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(bytePassword)), nil
}

func init() {
	adminCmd.AddCommand(adminCreateCmd)
	adminCmd.AddCommand(adminPasswdCmd)
}
