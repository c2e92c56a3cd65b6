package account

import (
	"context"

	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/recipient"
)

// Store is the account repository the reconciler reads from and writes
// audit results to.
type Store interface {
	CreateAccount(ctx context.Context, a *Account) error
	GetAccount(ctx context.Context, accountID id.AccountID) (*Account, error)
	ListAccounts(ctx context.Context, opts ListOpts) ([]*Account, error)
	UpdateAccount(ctx context.Context, a *Account) error

	CreateRecipient(ctx context.Context, r *recipient.Recipient) error
	// ListRecipients returns every recipient of the account, removed ones included.
	ListRecipients(ctx context.Context, accountID id.AccountID) ([]*recipient.Recipient, error)
	UpdateRecipient(ctx context.Context, r *recipient.Recipient) error

	// UpdateAudit writes only the audit fields of one account.
	UpdateAudit(ctx context.Context, accountID id.AccountID, u AuditUpdate) error
	// SetOverride sets the override, records reason, and replaces the audit
	// fields with u (normally an unflagged update with a note).
	SetOverride(ctx context.Context, accountID id.AccountID, reason string, u AuditUpdate) error
	// ClearOverride removes the override without touching audit fields.
	ClearOverride(ctx context.Context, accountID id.AccountID) error
	// ClearAllAudit resets audit fields on every account, leaving overrides
	// in place. It returns the number of accounts touched.
	ClearAllAudit(ctx context.Context) (int64, error)
}
