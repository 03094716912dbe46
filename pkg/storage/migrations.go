package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate creates the schema if it does not exist. The DDL is shared between
// backends except for the auto-increment primary key, which is substituted
// per driver.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	pk := "BIGSERIAL PRIMARY KEY"
	if driver == "sqlite3" {
		pk = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id {{PK}},
			username TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS organizations (
			id {{PK}},
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS organization_admins (
			organization_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			UNIQUE (organization_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS organization_members (
			organization_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			UNIQUE (organization_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id {{PK}},
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			local_path TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS organization_projects (
			organization_id BIGINT NOT NULL,
			project_id BIGINT NOT NULL,
			UNIQUE (organization_id, project_id)
		)`,
		`CREATE TABLE IF NOT EXISTS teams (
			id {{PK}},
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			organization_id BIGINT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (organization_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS team_members (
			team_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			UNIQUE (team_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS team_projects (
			team_id BIGINT NOT NULL,
			project_id BIGINT NOT NULL,
			UNIQUE (team_id, project_id)
		)`,
		`CREATE TABLE IF NOT EXISTS inventories (
			id {{PK}},
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			organization_id BIGINT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (organization_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS hosts (
			id {{PK}},
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			inventory_id BIGINT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (inventory_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS groups (
			id {{PK}},
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			inventory_id BIGINT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (inventory_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS group_hosts (
			group_id BIGINT NOT NULL,
			host_id BIGINT NOT NULL,
			UNIQUE (group_id, host_id)
		)`,
		`CREATE TABLE IF NOT EXISTS group_children (
			group_id BIGINT NOT NULL,
			child_group_id BIGINT NOT NULL,
			UNIQUE (group_id, child_group_id)
		)`,
		`CREATE TABLE IF NOT EXISTS variable_data (
			id {{PK}},
			host_id BIGINT,
			group_id BIGINT,
			data TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS permissions (
			id {{PK}},
			user_id BIGINT,
			team_id BIGINT,
			inventory_id BIGINT NOT NULL,
			permission_type TEXT NOT NULL DEFAULT 'read',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS credentials (
			id {{PK}},
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			user_id BIGINT,
			team_id BIGINT,
			ssh_username TEXT NOT NULL DEFAULT '',
			ssh_password TEXT NOT NULL DEFAULT '',
			ssh_key_data TEXT NOT NULL DEFAULT '',
			ssh_key_unlock TEXT NOT NULL DEFAULT '',
			sudo_username TEXT NOT NULL DEFAULT '',
			sudo_password TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS tags (
			id {{PK}},
			name TEXT NOT NULL UNIQUE,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS organization_tags (
			organization_id BIGINT NOT NULL,
			tag_id BIGINT NOT NULL,
			UNIQUE (organization_id, tag_id)
		)`,
		`CREATE TABLE IF NOT EXISTS audit_trail (
			id {{PK}},
			organization_id BIGINT NOT NULL,
			resource_type TEXT NOT NULL,
			resource_id BIGINT NOT NULL,
			action TEXT NOT NULL,
			actor_id BIGINT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_permissions_user ON permissions (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_permissions_team ON permissions (team_id)`,
		`CREATE INDEX IF NOT EXISTS idx_hosts_inventory ON hosts (inventory_id)`,
		`CREATE INDEX IF NOT EXISTS idx_groups_inventory ON groups (inventory_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_org ON audit_trail (organization_id)`,
	}

	for _, stmt := range statements {
		stmt = strings.ReplaceAll(stmt, "{{PK}}", pk)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
	}
	return nil
}
