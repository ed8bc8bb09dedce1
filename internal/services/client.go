package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/orbit-api/internal/database"
	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const clientColumns = `c.id, c.organization_id, c.name, c.email, c.phone, c.address, c.currency, c.created_at, c.updated_at`

type CreateClientInput struct {
	Name     string
	Email    *string
	Phone    *string
	Address  *string
	Currency string
}

type ClientService struct {
	db       *database.DB
	currency string
}

func NewClientService(db *database.DB, defaultCurrency string) *ClientService {
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	return &ClientService{db: db, currency: defaultCurrency}
}

func (s *ClientService) Create(ctx context.Context, orgID uuid.UUID, input CreateClientInput) (*models.Client, error) {
	currency := input.Currency
	if currency == "" {
		currency = s.currency
	}

	var client models.Client
	err := scanClient(s.db.Pool.QueryRow(ctx, `
		INSERT INTO clients AS c (organization_id, name, email, phone, address, currency)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+clientColumns,
		orgID, input.Name, input.Email, input.Phone, input.Address, currency,
	), &client)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &client, nil
}

func (s *ClientService) List(ctx context.Context, orgID uuid.UUID, page models.Page) (*models.Paginated[models.Client], error) {
	var total int64
	err := s.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients WHERE organization_id = $1`, orgID).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count clients: %w", err)
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+clientColumns+`, (SELECT COUNT(*) FROM projects p WHERE p.client_id = c.id)
		FROM clients c
		WHERE c.organization_id = $1
		ORDER BY c.name
		LIMIT $2 OFFSET $3
	`, orgID, page.Limit, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		var c models.Client
		if err := scanClient(rows, &c, &c.ProjectCount); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}

	return models.NewPaginated(clients, total, page), nil
}

// Get returns the client with its paid revenue and the number of projects that
// are neither completed nor archived.
func (s *ClientService) Get(ctx context.Context, orgID, clientID uuid.UUID) (*models.ClientDetails, error) {
	var details models.ClientDetails
	err := scanClient(s.db.Pool.QueryRow(ctx, `
		SELECT `+clientColumns+`,
			(SELECT COALESCE(SUM(i.total), 0) FROM invoices i
				WHERE i.client_id = c.id AND i.organization_id = c.organization_id AND i.status = $3),
			(SELECT COUNT(*) FROM projects p
				WHERE p.client_id = c.id AND p.status NOT IN ($4, $5))
		FROM clients c
		WHERE c.id = $1 AND c.organization_id = $2
	`, clientID, orgID, models.InvoiceStatusPaid, models.ProjectStatusCompleted, models.ProjectStatusArchived),
		&details.Client, &details.TotalRevenue, &details.ActiveProjectsCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("client not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &details, nil
}

func scanClient(row pgx.Row, c *models.Client, extra ...any) error {
	dest := []any{
		&c.ID, &c.OrganizationID, &c.Name, &c.Email, &c.Phone, &c.Address,
		&c.Currency, &c.CreatedAt, &c.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}
