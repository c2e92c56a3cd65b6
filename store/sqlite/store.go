package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
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

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables, indexes and triggers using the grove
// orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("boxrate/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("boxrate/sqlite: migration failed: %w", err)
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
	if err := s.sdb.NewSelect(&models).OrderExpr("start_date ASC").Scan(ctx); err != nil {
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
	err := s.sdb.NewSelect(m).
		Where("id = ?", versionID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, boxrate.ErrRateVersionNotFound
		}
		return nil, err
	}
	return fromRateVersionModel(m)
}

// RotateRateVersion inserts v. The rotation trigger closes the open version
// on the day before v starts within the same statement, so closeEnd must be
// that day.
func (s *Store) RotateRateVersion(ctx context.Context, v *rate.Version, closeEnd types.Date) error {
	if v.EndDate != nil {
		return fmt.Errorf("%w: rotated version must be open", boxrate.ErrInvalidInput)
	}
	if closeEnd != v.StartDate.AddDays(-1) {
		return fmt.Errorf("%w: close date %s must be the day before %s", boxrate.ErrInvalidInput, closeEnd, v.StartDate)
	}
	m, err := toRateVersionModel(v)
	if err != nil {
		return err
	}
	_, err = s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) UpdateRateVersion(ctx context.Context, v *rate.Version) error {
	m, err := toRateVersionModel(v)
	if err != nil {
		return err
	}
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return expectRows(res, boxrate.ErrRateVersionNotFound)
}

// ==================== Account store ====================

func (s *Store) CreateAccount(ctx context.Context, a *account.Account) error {
	_, err := s.sdb.NewInsert(toAccountModel(a)).Exec(ctx)
	return err
}

func (s *Store) GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	m := new(accountModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", accountID.String()).
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
	q := s.sdb.NewSelect(&models)

	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if opts.FlaggedOnly {
		q = q.Where("audit_flag = ?", true)
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
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return expectRows(res, boxrate.ErrAccountNotFound)
}

// ==================== Recipient store ====================

func (s *Store) CreateRecipient(ctx context.Context, r *recipient.Recipient) error {
	_, err := s.sdb.NewInsert(toRecipientModel(r)).Exec(ctx)
	return err
}

func (s *Store) ListRecipients(ctx context.Context, accountID id.AccountID) ([]*recipient.Recipient, error) {
	var models []recipientModel
	err := s.sdb.NewSelect(&models).
		Where("account_id = ?", accountID.String()).
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
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return expectRows(res, boxrate.ErrRecipientNotFound)
}

// ==================== Audit fields ====================

func (s *Store) UpdateAudit(ctx context.Context, accountID id.AccountID, u account.AuditUpdate) error {
	res, err := s.sdb.NewUpdate((*accountModel)(nil)).
		Set("audit_flag = ?", u.Flag).
		Set("audit_flag_type = ?", string(u.FlagType)).
		Set("audit_note = ?", u.Note).
		Set("audited_at = ?", u.AuditedAt).
		Set("updated_at = ?", now()).
		Where("id = ?", accountID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRows(res, boxrate.ErrAccountNotFound)
}

func (s *Store) SetOverride(ctx context.Context, accountID id.AccountID, reason string, u account.AuditUpdate) error {
	res, err := s.sdb.NewUpdate((*accountModel)(nil)).
		Set("rate_override = ?", true).
		Set("rate_override_reason = ?", reason).
		Set("audit_flag = ?", u.Flag).
		Set("audit_flag_type = ?", string(u.FlagType)).
		Set("audit_note = ?", u.Note).
		Set("audited_at = ?", u.AuditedAt).
		Set("updated_at = ?", now()).
		Where("id = ?", accountID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRows(res, boxrate.ErrAccountNotFound)
}

func (s *Store) ClearOverride(ctx context.Context, accountID id.AccountID) error {
	res, err := s.sdb.NewUpdate((*accountModel)(nil)).
		Set("rate_override = ?", false).
		Set("rate_override_reason = ?", "").
		Set("updated_at = ?", now()).
		Where("id = ?", accountID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRows(res, boxrate.ErrAccountNotFound)
}

func (s *Store) ClearAllAudit(ctx context.Context) (int64, error) {
	res, err := s.sdb.NewUpdate((*accountModel)(nil)).
		Set("audit_flag = ?", false).
		Set("audit_flag_type = ?", "").
		Set("audit_note = ?", "").
		Set("audited_at = NULL").
		Set("updated_at = ?", now()).
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
