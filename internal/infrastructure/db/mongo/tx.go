package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// TransactionRunner executes a function inside a MongoDB session so that
// multi-document writes (loan update + installment batch insert) commit or
// abort together. Requires a replica-set deployment.
type TransactionRunner struct {
	client *mongo.Client
}

func NewTransactionRunner(client *mongo.Client) *TransactionRunner {
	return &TransactionRunner{client: client}
}

func (t *TransactionRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
