package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CollinsCMK/healthfiti-backend-sub000/domains/patients/be/service"
	"github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/tenantdb"
)

const patientColumns = `id, public_id, facility_id, mrn, first_name, last_name,
        date_of_birth, phone, created_at, updated_at`

// PostgresRepository reads and writes the patients table of whichever tenant
// database is bound to the request context. It holds no pool of its own.
type PostgresRepository struct{}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository() *PostgresRepository {
	return &PostgresRepository{}
}

// tenantPool extracts the tenant pool from the context. Requests reach this
// repository only through the tenant connection middleware, so a missing conn
// is a programming error upstream, not user input.
func tenantPool(ctx context.Context) (*pgxpool.Pool, error) {
	conn, ok := tenantdb.FromContext(ctx)
	if !ok {
		return nil, errors.New("no tenant connection in context")
	}
	return conn.Pool(), nil
}

func (r *PostgresRepository) List(ctx context.Context, opts service.ListOptions) (service.ListResult, error) {
	pool, err := tenantPool(ctx)
	if err != nil {
		return service.ListResult{}, err
	}

	var conds []string
	var args []any
	if s := strings.TrimSpace(opts.Search); s != "" {
		args = append(args, "%"+s+"%")
		conds = append(conds, fmt.Sprintf("(last_name ILIKE $%d OR first_name ILIKE $%d OR mrn ILIKE $%d)", len(args), len(args), len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM patients"+where, args...).Scan(&total); err != nil {
		return service.ListResult{}, fmt.Errorf("count patients: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM patients%s ORDER BY last_name, first_name, id LIMIT $%d OFFSET $%d`,
		patientColumns, where, len(args)+1, len(args)+2)
	args = append(args, opts.PageSize, (opts.Page-1)*opts.PageSize)

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return service.ListResult{}, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var patients []service.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return service.ListResult{}, err
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return service.ListResult{}, fmt.Errorf("list patients: %w", err)
	}

	return service.ListResult{
		Patients: patients,
		Page:     opts.Page,
		PageSize: opts.PageSize,
		Total:    total,
	}, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p service.Patient) (service.Patient, error) {
	pool, err := tenantPool(ctx)
	if err != nil {
		return service.Patient{}, err
	}

	query := `
        INSERT INTO patients (public_id, facility_id, mrn, first_name, last_name, date_of_birth, phone)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING ` + patientColumns

	row := pool.QueryRow(ctx, query,
		p.PublicID, p.FacilityID, p.MRN, p.FirstName, p.LastName, p.DateOfBirth, p.Phone)

	created, err := scanPatient(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.Patient{}, service.ErrConflictMRN
		}
		return service.Patient{}, fmt.Errorf("create patient: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) GetByPublicID(ctx context.Context, publicID uuid.UUID) (service.Patient, error) {
	pool, err := tenantPool(ctx)
	if err != nil {
		return service.Patient{}, err
	}

	row := pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE public_id = $1`, publicID)
	p, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.Patient{}, service.ErrNotFound
		}
		return service.Patient{}, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, publicID uuid.UUID, input service.UpdateInput) (service.Patient, error) {
	pool, err := tenantPool(ctx)
	if err != nil {
		return service.Patient{}, err
	}

	query := `
        UPDATE patients
        SET facility_id = COALESCE($2, facility_id),
            first_name  = COALESCE($3, first_name),
            last_name   = COALESCE($4, last_name),
            phone       = COALESCE($5, phone),
            updated_at  = $6
        WHERE public_id = $1
        RETURNING ` + patientColumns

	row := pool.QueryRow(ctx, query,
		publicID, input.FacilityID, input.FirstName, input.LastName, input.Phone, time.Now().UTC())

	p, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.Patient{}, service.ErrNotFound
		}
		return service.Patient{}, fmt.Errorf("update patient: %w", err)
	}
	return p, nil
}

func scanPatient(row pgx.Row) (service.Patient, error) {
	var p service.Patient
	err := row.Scan(
		&p.ID,
		&p.PublicID,
		&p.FacilityID,
		&p.MRN,
		&p.FirstName,
		&p.LastName,
		&p.DateOfBirth,
		&p.Phone,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return service.Patient{}, err
	}
	return p, nil
}

var _ service.Repository = (*PostgresRepository)(nil)
