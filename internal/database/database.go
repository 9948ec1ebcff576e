package database

import (
	"context"
	"fmt"

	"lumenhaus-backend/internal/env"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// dynamoAPI is the slice of the DynamoDB client the wrapper uses. Tests
// substitute a fake; production wires *dynamodb.Client.
type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type DynamoDBClient struct {
	svc dynamoAPI
}

func NewDynamoDBClient() (*DynamoDBClient, error) {
	region := env.Get(env.AWSRegion)
	credOne := env.Get(env.AWSID)
	credTwo := env.Get(env.AWSSecret)
	credThree := env.Get(env.AWSToken)
	endpoint := env.Get(env.DynamoDBEndpoint)

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	if credOne != "" && credTwo != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(credOne, credTwo, credThree)),
		))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	clientOpts := []func(*dynamodb.Options){}
	if endpoint != "" {
		clientOpts = append(clientOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	db := dynamodb.NewFromConfig(cfg, clientOpts...)
	return &DynamoDBClient{
		svc: db,
	}, nil
}

type Database struct {
	Client *DynamoDBClient
}

func NewDatabase() (*Database, error) {
	dbClient, err := NewDynamoDBClient()
	if err != nil {
		return nil, fmt.Errorf("init dynamodb client: %w", err)
	}

	return &Database{
		Client: dbClient,
	}, nil
}
