package storage

import (
	"context"
	"database/sql"
)

const insertAccount = `
INSERT INTO accounts (client_ref, name, balance_cents, percent)
VALUES (?, ?, ?, ?)
RETURNING id
`

type InsertAccountParams struct {
	ClientRef    string
	Name         string
	BalanceCents int64
	Percent      string
}

func (q *Queries) InsertAccount(ctx context.Context, arg InsertAccountParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, insertAccount, arg.ClientRef, arg.Name, arg.BalanceCents, arg.Percent)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const updateAccount = `
UPDATE accounts
SET name = ?, balance_cents = ?, percent = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

type UpdateAccountParams struct {
	Name         string
	BalanceCents int64
	Percent      string
	ID           int64
}

func (q *Queries) UpdateAccount(ctx context.Context, arg UpdateAccountParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateAccount, arg.Name, arg.BalanceCents, arg.Percent, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteAccount = `DELETE FROM accounts WHERE id = ?`

func (q *Queries) DeleteAccount(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteAccount, id)
	return err
}

const deleteAccountTransactions = `DELETE FROM transactions WHERE account_id = ?`

func (q *Queries) DeleteAccountTransactions(ctx context.Context, accountID int64) error {
	_, err := q.db.ExecContext(ctx, deleteAccountTransactions, accountID)
	return err
}

const listAccounts = `
SELECT id, client_ref, name, balance_cents, percent
FROM accounts
ORDER BY id
`

func (q *Queries) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.ID,
			&i.ClientRef,
			&i.Name,
			&i.BalanceCents,
			&i.Percent,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertTransaction = `
INSERT INTO transactions (account_id, amount_cents, type, name, other, date)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id
`

type InsertTransactionParams struct {
	AccountID   int64
	AmountCents int64
	Type        string
	Name        sql.NullString
	Other       sql.NullString
	Date        int64
}

func (q *Queries) InsertTransaction(ctx context.Context, arg InsertTransactionParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, insertTransaction,
		arg.AccountID,
		arg.AmountCents,
		arg.Type,
		arg.Name,
		arg.Other,
		arg.Date,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const updateTransaction = `
UPDATE transactions
SET account_id = ?, amount_cents = ?, type = ?, name = ?, other = ?, date = ?
WHERE id = ?
`

type UpdateTransactionParams struct {
	AccountID   int64
	AmountCents int64
	Type        string
	Name        sql.NullString
	Other       sql.NullString
	Date        int64
	ID          int64
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateTransaction,
		arg.AccountID,
		arg.AmountCents,
		arg.Type,
		arg.Name,
		arg.Other,
		arg.Date,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteTransaction, id)
	return err
}

const listRecentTransactions = `
SELECT id, account_id, amount_cents, type, name, other, date
FROM (
    SELECT t.id, t.account_id, t.amount_cents, t.type, t.name, t.other, t.date,
           ROW_NUMBER() OVER (PARTITION BY t.account_id ORDER BY t.date DESC, t.id DESC) AS rn
    FROM transactions t
)
WHERE rn <= ?
ORDER BY account_id, date DESC, id DESC
`

// ListRecentTransactions returns at most perAccount transactions for every
// account, newest first within each account.
func (q *Queries) ListRecentTransactions(ctx context.Context, perAccount int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listRecentTransactions, perAccount)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.AmountCents,
			&i.Type,
			&i.Name,
			&i.Other,
			&i.Date,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countTransactions = `SELECT COUNT(*) FROM transactions WHERE account_id = ?`

func (q *Queries) CountTransactions(ctx context.Context, accountID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countTransactions, accountID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
