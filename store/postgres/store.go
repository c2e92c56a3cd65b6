package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/boxrate"
	"github.com/xraph/boxrate/account"
	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/rate"
	"github.com/xraph/boxrate/recipient"
	"github.com/xraph/boxrate/store"
	"github.com/xraph/boxrate/types"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("boxrate/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("boxrate/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Rate version store ====================

func (s *Store) ListRateVersions(ctx context.Context) ([]*rate.Version, error) {
	var models []rateVersionModel
	if err := s.pg.NewSelect(&models).OrderExpr("start_date ASC").Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*rate.Version, len(models))
	for i := range models {
		v, err := fromRateVersionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

func (s *Store) GetRateVersion(ctx context.Context, versionID id.RateVersionID) (*rate.Version, error) {
	m := new(rateVersionModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", versionID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, boxrate.ErrRateVersionNotFound
		}
		return nil, err
	}
	return fromRateVersionModel(m)
}

// RotateRateVersion closes the open version and inserts v in one statement.
// The insert reads the closing CTE, so the close lands first and the
// one-open-version index never sees two open rows.
func (s *Store) RotateRateVersion(ctx context.Context, v *rate.Version, closeEnd types.Date) error {
	if v.EndDate != nil {
		return fmt.Errorf("%w: rotated version must be open", boxrate.ErrInvalidInput)
	}
	m, err := toRateVersionModel(v)
	if err != nil {
		return err
	}

	var inserted string
	err = s.pg.NewRaw(`
		WITH closed AS (
			UPDATE boxrate_rate_versions
			   SET end_date = $1::date, updated_at = $2::timestamptz
			 WHERE end_date IS NULL
			RETURNING id
		)
		INSERT INTO boxrate_rate_versions (
			id, start_date, end_date,
			base_rate_3_month, base_rate_6_month, base_rate_12_month,
			additional_adult_rates, business_account_fee, minor_recipient_fee,
			key_deposit, currency, notes, created_at, updated_at
		)
		SELECT $3::text, $4::date, NULL::date,
		       $5::bigint, $6::bigint, $7::bigint,
		       $8::jsonb, $9::bigint, $10::bigint,
		       $11::bigint, $12::text, $13::text, $14::timestamptz, $15::timestamptz
		  FROM (SELECT COUNT(*) FROM closed) AS c
		RETURNING id
	`, closeEnd, m.CreatedAt,
		m.ID, m.StartDate,
		m.BaseRate3Month, m.BaseRate6Month, m.BaseRate12Month,
		string(m.AdditionalAdultRates), m.BusinessAccountFee, m.MinorRecipientFee,
		m.KeyDeposit, m.Currency, m.Notes, m.CreatedAt, m.UpdatedAt,
	).Scan(ctx, &inserted)
	return err
}

func (s *Store) UpdateRateVersion(ctx context.Context, v *rate.Version) error {
	m, err := toRateVersionModel(v)
	if err != nil {
		return err
	}
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return expectRows(res, boxrate.ErrRateVersionNotFound)
}

// ==================== Account store ====================

func (s *Store) CreateAccount(ctx context.Context, a *account.Account) error {
	_, err := s.pg.NewInsert(toAccountModel(a)).Exec(ctx)
	return err
}

func (s *Store) GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	m := new(accountModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", accountID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, boxrate.ErrAccountNotFound
		}
		return nil, err
	}
	return fromAccountModel(m)
}

func (s *Store) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	var models []accountModel
	q := s.pg.NewSelect(&models)

	if opts.Status != "" {
		q = q.Where("status = $1", string(opts.Status))
	}
	if opts.FlaggedOnly {
		q = q.Where("audit_flag")
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*account.Account, len(models))
	for i := range models {
		a, err := fromAccountModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = a
	}
	return result, nil
}

func (s *Store) UpdateAccount(ctx context.Context, a *account.Account) error {
	m := toAccountModel(a)
	m.UpdatedAt = now()
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return expectRows(res, boxrate.ErrAccountNotFound)
}

// ==================== Recipient store ====================

func (s *Store) CreateRecipient(ctx context.Context, r *recipient.Recipient) error {
	_, err := s.pg.NewInsert(toRecipientModel(r)).Exec(ctx)
	return err
}

func (s *Store) ListRecipients(ctx context.Context, accountID id.AccountID) ([]*recipient.Recipient, error) {
	var models []recipientModel
	err := s.pg.NewSelect(&models).
		Where("account_id = $1", accountID.String()).
		OrderExpr("created_at ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*recipient.Recipient, len(models))
	for i := range models {
		r, err := fromRecipientModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) UpdateRecipient(ctx context.Context, r *recipient.Recipient) error {
	m := toRecipientModel(r)
	m.UpdatedAt = now()
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return expectRows(res, boxrate.ErrRecipientNotFound)
}

// ==================== Audit fields ====================

func (s *Store) UpdateAudit(ctx context.Context, accountID id.AccountID, u account.AuditUpdate) error {
	res, err := s.pg.NewUpdate((*accountModel)(nil)).
		Set("audit_flag = $1", u.Flag).
		Set("audit_flag_type = $2", string(u.FlagType)).
		Set("audit_note = $3", u.Note).
		Set("audited_at = $4", u.AuditedAt).
		Set("updated_at = $5", now()).
		Where("id = $6", accountID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRows(res, boxrate.ErrAccountNotFound)
}

func (s *Store) SetOverride(ctx context.Context, accountID id.AccountID, reason string, u account.AuditUpdate) error {
	res, err := s.pg.NewUpdate((*accountModel)(nil)).
		Set("rate_override = $1", true).
		Set("rate_override_reason = $2", reason).
		Set("audit_flag = $3", u.Flag).
		Set("audit_flag_type = $4", string(u.FlagType)).
		Set("audit_note = $5", u.Note).
		Set("audited_at = $6", u.AuditedAt).
		Set("updated_at = $7", now()).
		Where("id = $8", accountID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRows(res, boxrate.ErrAccountNotFound)
}

func (s *Store) ClearOverride(ctx context.Context, accountID id.AccountID) error {
	res, err := s.pg.NewUpdate((*accountModel)(nil)).
		Set("rate_override = $1", false).
		Set("rate_override_reason = $2", "").
		Set("updated_at = $3", now()).
		Where("id = $4", accountID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRows(res, boxrate.ErrAccountNotFound)
}

func (s *Store) ClearAllAudit(ctx context.Context) (int64, error) {
	res, err := s.pg.NewUpdate((*accountModel)(nil)).
		Set("audit_flag = $1", false).
		Set("audit_flag_type = $2", "").
		Set("audit_note = $3", "").
		Set("audited_at = NULL").
		Set("updated_at = $4", now()).
		Where("1 = 1").
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// rowsResult is the part of an exec result expectRows reads.
type rowsResult interface {
	RowsAffected() (int64, error)
}

// expectRows maps an update that matched nothing to notFound.
func expectRows(res rowsResult, notFound error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
