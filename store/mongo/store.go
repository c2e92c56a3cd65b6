package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/boxrate"
	"github.com/xraph/boxrate/account"
	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/rate"
	"github.com/xraph/boxrate/recipient"
	"github.com/xraph/boxrate/store"
	"github.com/xraph/boxrate/types"
)

// Collection name constants.
const (
	colRateVersions = "boxrate_rate_versions"
	colAccounts     = "boxrate_accounts"
	colRecipients   = "boxrate_recipients"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
//
// Rate rotation runs in a multi-document transaction and therefore needs a
// replica set or sharded cluster.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all boxrate collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("boxrate/mongo: migrate %s indexes: %w", col, err)
		}
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
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "start_date", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("boxrate/mongo: list rate versions: %w", err)
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
	var m rateVersionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": versionID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, boxrate.ErrRateVersionNotFound
		}
		return nil, fmt.Errorf("boxrate/mongo: get rate version: %w", err)
	}
	return fromRateVersionModel(&m)
}

// RotateRateVersion closes the open version and inserts v in one
// transaction.
func (s *Store) RotateRateVersion(ctx context.Context, v *rate.Version, closeEnd types.Date) error {
	if v.EndDate != nil {
		return fmt.Errorf("%w: rotated version must be open", boxrate.ErrInvalidInput)
	}
	m := toRateVersionModel(v)

	sess, err := s.mdb.Collection(colRateVersions).Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("boxrate/mongo: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(txCtx context.Context) (any, error) {
		_, err := s.mdb.NewUpdate((*rateVersionModel)(nil)).
			Filter(bson.M{"end_date": ""}).
			Set("end_date", closeEnd.String()).
			Set("updated_at", m.CreatedAt).
			Exec(txCtx)
		if err != nil {
			return nil, err
		}
		if _, err := s.mdb.NewInsert(m).Exec(txCtx); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, boxrate.ErrAlreadyExists
			}
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("boxrate/mongo: rotate rate version: %w", err)
	}
	return nil
}

func (s *Store) UpdateRateVersion(ctx context.Context, v *rate.Version) error {
	m := toRateVersionModel(v)

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("boxrate/mongo: update rate version: %w", err)
	}
	if res.MatchedCount() == 0 {
		return boxrate.ErrRateVersionNotFound
	}
	return nil
}

// ==================== Account store ====================

func (s *Store) CreateAccount(ctx context.Context, a *account.Account) error {
	_, err := s.mdb.NewInsert(toAccountModel(a)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return boxrate.ErrAlreadyExists
		}
		return fmt.Errorf("boxrate/mongo: create account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	var m accountModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": accountID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, boxrate.ErrAccountNotFound
		}
		return nil, fmt.Errorf("boxrate/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
}

func (s *Store) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	var models []accountModel

	filter := bson.M{}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	if opts.FlaggedOnly {
		filter["audit_flag"] = true
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("boxrate/mongo: list accounts: %w", err)
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

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("boxrate/mongo: update account: %w", err)
	}
	if res.MatchedCount() == 0 {
		return boxrate.ErrAccountNotFound
	}
	return nil
}

// ==================== Recipient store ====================

func (s *Store) CreateRecipient(ctx context.Context, r *recipient.Recipient) error {
	_, err := s.mdb.NewInsert(toRecipientModel(r)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return boxrate.ErrAlreadyExists
		}
		return fmt.Errorf("boxrate/mongo: create recipient: %w", err)
	}
	return nil
}

func (s *Store) ListRecipients(ctx context.Context, accountID id.AccountID) ([]*recipient.Recipient, error) {
	var models []recipientModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"account_id": accountID.String()}).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("boxrate/mongo: list recipients: %w", err)
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

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("boxrate/mongo: update recipient: %w", err)
	}
	if res.MatchedCount() == 0 {
		return boxrate.ErrRecipientNotFound
	}
	return nil
}

// ==================== Audit fields ====================

func (s *Store) UpdateAudit(ctx context.Context, accountID id.AccountID, u account.AuditUpdate) error {
	res, err := s.mdb.NewUpdate((*accountModel)(nil)).
		Filter(bson.M{"_id": accountID.String()}).
		Set("audit_flag", u.Flag).
		Set("audit_flag_type", string(u.FlagType)).
		Set("audit_note", u.Note).
		Set("audited_at", u.AuditedAt).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("boxrate/mongo: update audit: %w", err)
	}
	if res.MatchedCount() == 0 {
		return boxrate.ErrAccountNotFound
	}
	return nil
}

func (s *Store) SetOverride(ctx context.Context, accountID id.AccountID, reason string, u account.AuditUpdate) error {
	res, err := s.mdb.NewUpdate((*accountModel)(nil)).
		Filter(bson.M{"_id": accountID.String()}).
		Set("rate_override", true).
		Set("rate_override_reason", reason).
		Set("audit_flag", u.Flag).
		Set("audit_flag_type", string(u.FlagType)).
		Set("audit_note", u.Note).
		Set("audited_at", u.AuditedAt).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("boxrate/mongo: set override: %w", err)
	}
	if res.MatchedCount() == 0 {
		return boxrate.ErrAccountNotFound
	}
	return nil
}

func (s *Store) ClearOverride(ctx context.Context, accountID id.AccountID) error {
	res, err := s.mdb.NewUpdate((*accountModel)(nil)).
		Filter(bson.M{"_id": accountID.String()}).
		Set("rate_override", false).
		Set("rate_override_reason", "").
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("boxrate/mongo: clear override: %w", err)
	}
	if res.MatchedCount() == 0 {
		return boxrate.ErrAccountNotFound
	}
	return nil
}

func (s *Store) ClearAllAudit(ctx context.Context) (int64, error) {
	res, err := s.mdb.Collection(colAccounts).UpdateMany(ctx, bson.M{}, bson.M{
		"$set": bson.M{
			"audit_flag":      false,
			"audit_flag_type": "",
			"audit_note":      "",
			"updated_at":      now(),
		},
		"$unset": bson.M{"audited_at": ""},
	})
	if err != nil {
		return 0, fmt.Errorf("boxrate/mongo: clear audit: %w", err)
	}
	return res.MatchedCount, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all boxrate collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colRateVersions: {
			{
				Keys:    bson.D{{Key: "start_date", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				// At most one open version.
				Keys: bson.D{{Key: "end_date", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"end_date": ""}),
			},
		},
		colAccounts: {
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "audit_flag", Value: 1}, {Key: "audit_flag_type", Value: 1}}},
			{Keys: bson.D{{Key: "mailbox_number", Value: 1}}},
		},
		colRecipients: {
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
	}
}
