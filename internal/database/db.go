package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection. poolSize
// bounds the number of concurrent connections; callers beyond the
// bound queue inside database/sql rather than failing, with the
// wait bounded by each request's store timeout.
func Open(user, pass, host, port, name string, poolSize int) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	// clientFoundRows=true -> UPDATE reports matched rows, not changed rows,
	// so re-submitting identical values still counts as a hit
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the users, animals and litters tables when
// they do not exist yet. Animals and litters cascade-delete with
// their owning user; father_id/mother_id stay plain columns so a
// dangling parent reference never breaks a row.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id CHAR(36) NOT NULL PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			personal_name VARCHAR(1024) NULL,
			breeder_name VARCHAR(1024) NULL,
			profile_picture_url VARCHAR(2048) NULL,
			is_breeder_profile TINYINT(1) NOT NULL DEFAULT 0,
			sequential_id INT NOT NULL AUTO_INCREMENT,
			UNIQUE KEY uq_users_email (email),
			UNIQUE KEY uq_users_seq (sequential_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS animals (
			id CHAR(36) NOT NULL PRIMARY KEY,
			user_id CHAR(36) NOT NULL,
			sequential_id INT NOT NULL AUTO_INCREMENT,
			name VARCHAR(1024) NULL,
			species VARCHAR(1024) NOT NULL,
			breeder VARCHAR(1024) NULL,
			birth_date VARCHAR(32) NULL,
			gender VARCHAR(16) NULL,
			color_variety VARCHAR(1024) NULL,
			coat_variety VARCHAR(1024) NULL,
			registry_code VARCHAR(1024) NULL,
			owner VARCHAR(1024) NULL,
			remarks VARCHAR(2048) NULL,
			father_id CHAR(36) NULL,
			mother_id CHAR(36) NULL,
			show_on_profile TINYINT(1) NOT NULL DEFAULT 0,
			show_registry_code TINYINT(1) NOT NULL DEFAULT 0,
			show_owner TINYINT(1) NOT NULL DEFAULT 0,
			show_remarks TINYINT(1) NOT NULL DEFAULT 0,
			show_parents TINYINT(1) NOT NULL DEFAULT 0,
			genetics_code VARCHAR(1024) NULL,
			UNIQUE KEY uq_animals_seq (sequential_id),
			KEY idx_animals_user (user_id),
			CONSTRAINT fk_animals_user FOREIGN KEY (user_id)
				REFERENCES users (id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS litters (
			id CHAR(36) NOT NULL PRIMARY KEY,
			user_id CHAR(36) NOT NULL,
			sequential_id INT NOT NULL AUTO_INCREMENT,
			name VARCHAR(1024) NOT NULL,
			date VARCHAR(32) NOT NULL,
			count INT NOT NULL DEFAULT 0,
			parent_ids TEXT NULL,
			UNIQUE KEY uq_litters_seq (sequential_id),
			KEY idx_litters_user (user_id),
			CONSTRAINT fk_litters_user FOREIGN KEY (user_id)
				REFERENCES users (id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
