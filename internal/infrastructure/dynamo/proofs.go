package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/zkp-id-api/internal/domain"
)

// ProofRepo manages single-use proof records. At most one unconsumed record
// exists per owner; Put overwrites any pending one.
type ProofRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewProofRepo(client *dynamodb.Client, tableName string) *ProofRepo {
	return &ProofRepo{client: client, tableName: tableName}
}

func (r *ProofRepo) Put(ctx context.Context, p *domain.ProofRecord) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal proof: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// Take reads and deletes the owner's proof record in one DeleteItem call
// (ReturnValues=ALL_OLD), so two concurrent retrievals can never both win.
func (r *ProofRepo) Take(ctx context.Context, ownerKey string) (*domain.ProofRecord, error) {
	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(r.tableName),
		Key:          strKey("owner_key", ownerKey),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, err
	}
	if len(out.Attributes) == 0 {
		return nil, fmt.Errorf("proof not found: %w", domain.ErrNotFound)
	}
	var p domain.ProofRecord
	if err := attributevalue.UnmarshalMap(out.Attributes, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
