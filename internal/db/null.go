package db

import "database/sql"

// NullToPtr converts a nullable column value to a pointer.
// Returns nil if the value is not valid.
func NullToPtr[T any](n sql.Null[T]) *T {
	if !n.Valid {
		return nil
	}
	v := n.V
	return &v
}

// PtrToNull converts a pointer to a nullable column value; nil becomes NULL.
func PtrToNull[T any](p *T) sql.Null[T] {
	if p == nil {
		return sql.Null[T]{}
	}
	return sql.Null[T]{V: *p, Valid: true}
}
