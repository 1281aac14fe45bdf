package config

import "fmt"

// users.admin_pk deliberately has no ON DELETE CASCADE: DeleteAdmin removes
// the dependent users itself inside one transaction.
var migrations = map[Dialect][]string{
	DialectSQLite: {
		`CREATE TABLE IF NOT EXISTS admins (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			admin_id TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			rank_name TEXT NOT NULL,
			area_of_working TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			password_changed INTEGER NOT NULL DEFAULT 0,
			first_login INTEGER NOT NULL DEFAULT 1,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			admin_pk INTEGER NOT NULL REFERENCES admins(id),
			username TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			rank_name TEXT NOT NULL DEFAULT '',
			area_of_working TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(admin_pk, username)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_admins_name ON admins(name)`,
		`CREATE INDEX IF NOT EXISTS idx_users_admin_pk ON users(admin_pk)`,
	},

	DialectPostgres: {
		`CREATE TABLE IF NOT EXISTS admins (
			id BIGSERIAL PRIMARY KEY,
			admin_id TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			rank_name TEXT NOT NULL,
			area_of_working TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			password_changed BOOLEAN NOT NULL DEFAULT FALSE,
			first_login BOOLEAN NOT NULL DEFAULT TRUE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			admin_pk BIGINT NOT NULL REFERENCES admins(id),
			username TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			rank_name TEXT NOT NULL DEFAULT '',
			area_of_working TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE(admin_pk, username)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_admins_name ON admins(name)`,
		`CREATE INDEX IF NOT EXISTS idx_users_admin_pk ON users(admin_pk)`,
	},

	// MySQL has no CREATE INDEX IF NOT EXISTS, so indexes are declared inline.
	DialectMySQL: {
		`CREATE TABLE IF NOT EXISTS admins (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			admin_id VARCHAR(191) NOT NULL,
			name VARCHAR(191) NOT NULL,
			rank_name VARCHAR(191) NOT NULL,
			area_of_working VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			password_changed BOOLEAN NOT NULL DEFAULT FALSE,
			first_login BOOLEAN NOT NULL DEFAULT TRUE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
			updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
			UNIQUE KEY uq_admins_admin_id (admin_id),
			KEY idx_admins_name (name)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			admin_pk BIGINT NOT NULL,
			username VARCHAR(191) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			rank_name VARCHAR(191) NOT NULL DEFAULT '',
			area_of_working VARCHAR(255) NOT NULL DEFAULT '',
			created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
			updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
			UNIQUE KEY uq_users_admin_username (admin_pk, username),
			CONSTRAINT fk_users_admin FOREIGN KEY (admin_pk) REFERENCES admins(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
}

func (s *Store) migrate() error {
	for _, m := range migrations[s.dialect] {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
