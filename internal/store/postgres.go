package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/crmsim/consortium-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Monetary values and percentages are stored as NUMERIC for exact decimal
// precision; bid types and proposal payloads as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// --- Administrators ---

func (s *PostgresStore) CreateAdministrator(ctx context.Context, a *model.Administrator) error {
	bidTypes, err := json.Marshal(a.AvailableBidTypes)
	if err != nil {
		return fmt.Errorf("encode bid types: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO administrators (id, company_id, name, update_index, update_month, update_grace_period,
		                             max_embedded_percentage, available_bid_types, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::NUMERIC, $8::JSONB, $9)`,
		a.ID, a.CompanyID, a.Name, string(a.UpdateIndex), a.UpdateMonth, a.UpdateGracePeriod,
		a.MaxEmbeddedPercentage.String(), bidTypes, a.CreatedAt,
	)
	return err
}

const administratorColumns = `id, company_id, name, update_index, update_month, update_grace_period,
		        max_embedded_percentage::TEXT, available_bid_types, created_at`

func (s *PostgresStore) GetAdministrator(ctx context.Context, companyID, id string) (*model.Administrator, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+administratorColumns+`
		 FROM administrators WHERE company_id = $1 AND id = $2`, companyID, id)
	a, err := scanAdministrator(row)
	if err != nil {
		return nil, wrapNotFound("administrator", id, err)
	}
	return a, nil
}

func (s *PostgresStore) ListAdministrators(ctx context.Context, companyID string) ([]model.Administrator, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+administratorColumns+`
		 FROM administrators WHERE company_id = $1 ORDER BY name`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []model.Administrator{}
	for rows.Next() {
		a, err := scanAdministrator(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func scanAdministrator(row pgx.Row) (*model.Administrator, error) {
	var a model.Administrator
	var index, maxEmbedded string
	var bidTypes []byte

	if err := row.Scan(&a.ID, &a.CompanyID, &a.Name, &index, &a.UpdateMonth, &a.UpdateGracePeriod,
		&maxEmbedded, &bidTypes, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.UpdateIndex = model.IndexType(index)
	a.MaxEmbeddedPercentage, _ = decimal.NewFromString(maxEmbedded)
	if len(bidTypes) > 0 {
		if err := json.Unmarshal(bidTypes, &a.AvailableBidTypes); err != nil {
			return nil, fmt.Errorf("decode bid types: %w", err)
		}
	}
	return &a, nil
}

// --- Products ---

func (s *PostgresStore) CreateProduct(ctx context.Context, p *model.Product) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO products (id, company_id, administrator_id, name, nominal_credit_value, term_months,
		                       admin_tax_pct, reserve_fund_pct, insurance_pct, reduced_percentage,
		                       advance_installments, created_at)
		 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6, $7::NUMERIC, $8::NUMERIC, $9::NUMERIC, $10::NUMERIC, $11, $12)`,
		p.ID, p.CompanyID, p.AdministratorID, p.Name, p.NominalCreditValue.String(), p.TermMonths,
		p.AdminTaxPct.String(), p.ReserveFundPct.String(), p.InsurancePct.String(), p.ReducedPercentage.String(),
		p.AdvanceInstallments, p.CreatedAt,
	)
	return err
}

const productColumns = `id, company_id, administrator_id, name, nominal_credit_value::TEXT, term_months,
		        admin_tax_pct::TEXT, reserve_fund_pct::TEXT, insurance_pct::TEXT, reduced_percentage::TEXT,
		        advance_installments, created_at`

func (s *PostgresStore) GetProduct(ctx context.Context, companyID, id string) (*model.Product, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+productColumns+`
		 FROM products WHERE company_id = $1 AND id = $2`, companyID, id)
	p, err := scanProduct(row)
	if err != nil {
		return nil, wrapNotFound("product", id, err)
	}
	return p, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context, companyID string) ([]model.Product, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+productColumns+`
		 FROM products WHERE company_id = $1 ORDER BY name`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	var credit, adminTax, reserve, insurance, reduced string

	if err := row.Scan(&p.ID, &p.CompanyID, &p.AdministratorID, &p.Name, &credit, &p.TermMonths,
		&adminTax, &reserve, &insurance, &reduced,
		&p.AdvanceInstallments, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.NominalCreditValue, _ = decimal.NewFromString(credit)
	p.AdminTaxPct, _ = decimal.NewFromString(adminTax)
	p.ReserveFundPct, _ = decimal.NewFromString(reserve)
	p.InsurancePct, _ = decimal.NewFromString(insurance)
	p.ReducedPercentage, _ = decimal.NewFromString(reduced)
	return &p, nil
}

// --- Properties ---

func (s *PostgresStore) CreateProperty(ctx context.Context, p *model.Property) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO properties (id, company_id, name, type, initial_value, daily_rate, occupancy_rate_pct,
		                         monthly_rent, fixed_monthly_costs, annual_appreciation_pct, created_at)
		 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6::NUMERIC, $7::NUMERIC, $8::NUMERIC, $9::NUMERIC, $10::NUMERIC, $11)`,
		p.ID, p.CompanyID, p.Name, string(p.Type),
		p.InitialValue.String(), p.DailyRate.String(), p.OccupancyRatePct.String(),
		p.MonthlyRent.String(), p.FixedMonthlyCosts.String(), p.AnnualAppreciationPct.String(),
		p.CreatedAt,
	)
	return err
}

const propertyColumns = `id, company_id, name, type, initial_value::TEXT, daily_rate::TEXT, occupancy_rate_pct::TEXT,
		        monthly_rent::TEXT, fixed_monthly_costs::TEXT, annual_appreciation_pct::TEXT, created_at`

func (s *PostgresStore) GetProperty(ctx context.Context, companyID, id string) (*model.Property, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+propertyColumns+`
		 FROM properties WHERE company_id = $1 AND id = $2`, companyID, id)
	p, err := scanProperty(row)
	if err != nil {
		return nil, wrapNotFound("property", id, err)
	}
	return p, nil
}

func (s *PostgresStore) ListProperties(ctx context.Context, companyID string) ([]model.Property, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+propertyColumns+`
		 FROM properties WHERE company_id = $1 ORDER BY name`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []model.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func scanProperty(row pgx.Row) (*model.Property, error) {
	var p model.Property
	var typ, initial, daily, occupancy, rent, costs, appreciation string

	if err := row.Scan(&p.ID, &p.CompanyID, &p.Name, &typ, &initial, &daily, &occupancy,
		&rent, &costs, &appreciation, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Type = model.PropertyType(typ)
	p.InitialValue, _ = decimal.NewFromString(initial)
	p.DailyRate, _ = decimal.NewFromString(daily)
	p.OccupancyRatePct, _ = decimal.NewFromString(occupancy)
	p.MonthlyRent, _ = decimal.NewFromString(rent)
	p.FixedMonthlyCosts, _ = decimal.NewFromString(costs)
	p.AnnualAppreciationPct, _ = decimal.NewFromString(appreciation)
	return &p, nil
}

// --- Proposals ---

func (s *PostgresStore) CreateProposal(ctx context.Context, p *model.Proposal) error {
	input, err := json.Marshal(p.Input)
	if err != nil {
		return fmt.Errorf("encode proposal input: %w", err)
	}
	result, err := json.Marshal(p.Result)
	if err != nil {
		return fmt.Errorf("encode proposal result: %w", err)
	}
	summary, err := json.Marshal(p.Result.Summary)
	if err != nil {
		return fmt.Errorf("encode proposal summary: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO proposals (id, company_id, lead_name, input, result, summary, created_at)
		 VALUES ($1, $2, $3, $4::JSONB, $5::JSONB, $6::JSONB, $7)`,
		p.ID, p.CompanyID, p.LeadName, input, result, summary, p.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetProposal(ctx context.Context, companyID, id string) (*model.Proposal, error) {
	var p model.Proposal
	var input, result []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, company_id, lead_name, input, result, created_at
		 FROM proposals WHERE company_id = $1 AND id = $2`, companyID, id).
		Scan(&p.ID, &p.CompanyID, &p.LeadName, &input, &result, &p.CreatedAt)
	if err != nil {
		return nil, wrapNotFound("proposal", id, err)
	}
	if err := json.Unmarshal(input, &p.Input); err != nil {
		return nil, fmt.Errorf("decode proposal input: %w", err)
	}
	if err := json.Unmarshal(result, &p.Result); err != nil {
		return nil, fmt.Errorf("decode proposal result: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) ListProposals(ctx context.Context, companyID string) ([]model.Proposal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, company_id, lead_name, input, summary, created_at
		 FROM proposals WHERE company_id = $1 ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []model.Proposal{}
	for rows.Next() {
		var p model.Proposal
		var input, summary []byte
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.LeadName, &input, &summary, &p.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(input, &p.Input); err != nil {
			return nil, fmt.Errorf("decode proposal input: %w", err)
		}
		if err := json.Unmarshal(summary, &p.Result.Summary); err != nil {
			return nil, fmt.Errorf("decode proposal summary: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// wrapNotFound maps pgx.ErrNoRows to ErrNotFound.
func wrapNotFound(kind, id string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return fmt.Errorf("get %s %s: %w", kind, id, err)
}
