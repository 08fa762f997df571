package migrations

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	goose.AddMigration(upSeedStaffUsers, downSeedStaffUsers)
}

type staffSeed struct {
	role        string
	emailEnv    string
	passwordEnv string
	email       string
	password    string
}

var staffSeeds = []staffSeed{
	{"ADMIN", "ADMIN_EMAIL", "ADMIN_PASSWORD", "admin@cinepoints.local", "admin123"},
	{"OPERATOR", "OPERATOR_EMAIL", "OPERATOR_PASSWORD", "operator@cinepoints.local", "operator123"},
	{"VIEWER", "VIEWER_EMAIL", "VIEWER_PASSWORD", "viewer@cinepoints.local", "viewer123"},
}

func (s staffSeed) credentials() (string, string) {
	email := os.Getenv(s.emailEnv)
	if email == "" {
		email = s.email
	}
	password := os.Getenv(s.passwordEnv)
	if password == "" {
		password = s.password
	}
	return email, password
}

func upSeedStaffUsers(tx *sql.Tx) error {
	for _, seed := range staffSeeds {
		email, password := seed.credentials()

		var count int
		err := tx.QueryRow("SELECT COUNT(*) FROM users WHERE email = $1", email).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to check existing %s user: %w", seed.role, err)
		}
		if count > 0 {
			continue
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		query := `
			INSERT INTO users (id, email, password_hash, role, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, true, NOW(), NOW())
		`
		if _, err := tx.Exec(query, uuid.NewString(), email, string(hashedPassword), seed.role); err != nil {
			return fmt.Errorf("failed to create %s user: %w", seed.role, err)
		}
	}
	return nil
}

func downSeedStaffUsers(tx *sql.Tx) error {
	for _, seed := range staffSeeds {
		email, _ := seed.credentials()
		if _, err := tx.Exec("DELETE FROM users WHERE email = $1 AND role = $2", email, seed.role); err != nil {
			return fmt.Errorf("failed to delete %s user: %w", seed.role, err)
		}
	}
	return nil
}
