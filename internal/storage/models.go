package storage

import "database/sql"

type Account struct {
	ID           int64
	ClientRef    string
	Name         string
	BalanceCents int64
	Percent      string
}

type Transaction struct {
	ID          int64
	AccountID   int64
	AmountCents int64
	Type        string
	Name        sql.NullString
	Other       sql.NullString
	Date        int64 // unix nanoseconds, UTC
}
