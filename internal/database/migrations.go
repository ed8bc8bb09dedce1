package database

import (
	"context"
	"fmt"
)

// Constraint names referenced by the services when translating unique violations.
const (
	ConstraintInvoiceNumber    = "invoices_org_number_key"
	ConstraintTagName          = "tags_org_name_key"
	ConstraintUserEmail        = "users_email_key"
	ConstraintOrganizationSlug = "organizations_slug_key"
	ConstraintMemberUser       = "organization_members_user_org_key"
	ConstraintRunningTimer     = "idx_time_entries_running"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		avatar_url VARCHAR(500),
		global_role VARCHAR(20) NOT NULL DEFAULT 'USER',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CONSTRAINT users_email_key UNIQUE(email)
	)`,

	`CREATE TABLE IF NOT EXISTS organizations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CONSTRAINT organizations_slug_key UNIQUE(slug)
	)`,

	`CREATE TABLE IF NOT EXISTS organization_members (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		user_id UUID REFERENCES users(id) ON DELETE CASCADE,
		role VARCHAR(20) NOT NULL DEFAULT 'MEMBER',
		status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
		invitation_token VARCHAR(128) UNIQUE,
		invited_email VARCHAR(255),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CONSTRAINT organization_members_user_org_key UNIQUE(user_id, organization_id)
	)`,

	// One pending row per invited address, whatever the interleaving of concurrent invites.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_members_org_invited_email
		ON organization_members(organization_id, invited_email)
		WHERE invited_email IS NOT NULL`,

	`CREATE INDEX IF NOT EXISTS idx_members_user_id ON organization_members(user_id)`,

	`CREATE TABLE IF NOT EXISTS clients (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255),
		phone VARCHAR(50),
		address TEXT,
		currency VARCHAR(3) NOT NULL DEFAULT 'USD',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_clients_organization_id ON clients(organization_id)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		client_id UUID REFERENCES clients(id) ON DELETE SET NULL,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		status VARCHAR(20) NOT NULL DEFAULT 'ACTIVE',
		start_date TIMESTAMP WITH TIME ZONE,
		due_date TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_projects_organization_id ON projects(organization_id)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		title VARCHAR(500) NOT NULL,
		description TEXT,
		status VARCHAR(20) NOT NULL DEFAULT 'TODO',
		priority VARCHAR(20) NOT NULL DEFAULT 'MEDIUM',
		due_date TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id)`,

	`CREATE TABLE IF NOT EXISTS task_assignees (
		task_id UUID NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		member_id UUID NOT NULL REFERENCES organization_members(id) ON DELETE CASCADE,
		PRIMARY KEY (task_id, member_id)
	)`,

	`CREATE TABLE IF NOT EXISTS tags (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		name VARCHAR(100) NOT NULL,
		color VARCHAR(20),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CONSTRAINT tags_org_name_key UNIQUE(organization_id, name)
	)`,

	`CREATE TABLE IF NOT EXISTS task_tags (
		task_id UUID NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		tag_id UUID NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (task_id, tag_id)
	)`,

	`CREATE TABLE IF NOT EXISTS comments (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		task_id UUID NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		author_id UUID NOT NULL REFERENCES organization_members(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_comments_task_id ON comments(task_id)`,

	`CREATE TABLE IF NOT EXISTS invoices (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		client_id UUID NOT NULL REFERENCES clients(id) ON DELETE RESTRICT,
		creator_id UUID REFERENCES users(id) ON DELETE SET NULL,
		invoice_number VARCHAR(50) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'DRAFT',
		issue_date TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		due_date TIMESTAMP WITH TIME ZONE NOT NULL,
		tax_rate NUMERIC NOT NULL DEFAULT 0,
		currency VARCHAR(3) NOT NULL DEFAULT 'USD',
		subtotal NUMERIC NOT NULL DEFAULT 0,
		total NUMERIC NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CONSTRAINT invoices_org_number_key UNIQUE(organization_id, invoice_number)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_invoices_org_issue_date ON invoices(organization_id, issue_date)`,

	`CREATE TABLE IF NOT EXISTS invoice_items (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		invoice_id UUID NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		description VARCHAR(500) NOT NULL,
		quantity NUMERIC NOT NULL,
		unit_price NUMERIC NOT NULL,
		amount NUMERIC NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_invoice_items_invoice_id ON invoice_items(invoice_id)`,

	`CREATE TABLE IF NOT EXISTS time_entries (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		task_id UUID NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		member_id UUID NOT NULL REFERENCES organization_members(id) ON DELETE CASCADE,
		description TEXT,
		start_time TIMESTAMP WITH TIME ZONE NOT NULL,
		end_time TIMESTAMP WITH TIME ZONE,
		duration BIGINT,
		is_billable BOOLEAN NOT NULL DEFAULT TRUE,
		invoice_item_id UUID REFERENCES invoice_items(id) ON DELETE SET NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	// At most one running timer per member.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_time_entries_running
		ON time_entries(member_id)
		WHERE end_time IS NULL`,

	`CREATE INDEX IF NOT EXISTS idx_time_entries_task_id ON time_entries(task_id)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash VARCHAR(255) NOT NULL UNIQUE,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON refresh_tokens(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_expires_at ON refresh_tokens(expires_at)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
