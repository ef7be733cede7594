package transactions

import "context"

type txnCtxKey struct{}

// WithTxn returns a copy of ctx that carries t as the ambient transaction.
func WithTxn(ctx context.Context, t *Txn) context.Context {
	return context.WithValue(ctx, txnCtxKey{}, t)
}

// FromContext returns the ambient transaction of ctx, if any.
func FromContext(ctx context.Context) (*Txn, bool) {
	t, ok := ctx.Value(txnCtxKey{}).(*Txn)
	return t, ok && t != nil
}
