package database

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func (c *DynamoDBClient) PutItem(
	ctx context.Context,
	tableName string,
	item interface{},
) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      av,
	}

	_, err = c.svc.PutItem(ctx, input)
	if err != nil {
		return fmt.Errorf("put item %s: %w", tableName, err)
	}
	return nil
}

func (c *DynamoDBClient) GetItem(
	ctx context.Context,
	tableName string,
	key map[string]types.AttributeValue,
	out interface{},
) error {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(tableName),
		Key:       key,
	}

	res, err := c.svc.GetItem(ctx, input)
	if err != nil {
		return fmt.Errorf("get item %s: %w", tableName, err)
	}
	if res.Item == nil {
		return fmt.Errorf("item not found in %s", tableName)
	}

	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return fmt.Errorf("unmarshal item: %w", err)
	}
	return nil
}

func (c *DynamoDBClient) UpdateItem(
	ctx context.Context,
	tableName string,
	key map[string]types.AttributeValue,
	updateExpr string,
	exprAttrValues map[string]types.AttributeValue,
	exprAttrNames map[string]string,
	out interface{},
) error {
	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(tableName),
		Key:                       key,
		UpdateExpression:          aws.String(updateExpr),
		ExpressionAttributeValues: exprAttrValues,
		ExpressionAttributeNames:  exprAttrNames,
		ReturnValues:              types.ReturnValueAllNew,
	}

	res, err := c.svc.UpdateItem(ctx, input)
	if err != nil {
		return fmt.Errorf("update item %s: %w", tableName, err)
	}

	if out != nil {
		if err := attributevalue.UnmarshalMap(res.Attributes, out); err != nil {
			return fmt.Errorf("unmarshal updated item: %w", err)
		}
	}
	return nil
}

func (c *DynamoDBClient) QueryItems(
	ctx context.Context,
	tableName string,
	indexName *string,
	keyCondExpr string,
	exprAttrValues map[string]types.AttributeValue,
	exprAttrNames map[string]string,
	scanIndexForward *bool,
) ([]map[string]types.AttributeValue, error) {
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(tableName),
		KeyConditionExpression:    aws.String(keyCondExpr),
		ExpressionAttributeValues: exprAttrValues,
	}
	if indexName != nil {
		input.IndexName = indexName
	}
	if exprAttrNames != nil {
		input.ExpressionAttributeNames = exprAttrNames
	}

	if scanIndexForward != nil {
		input.ScanIndexForward = aws.Bool(*scanIndexForward)
	}

	out, err := c.svc.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("query %s[%s]: %w", tableName, aws.ToString(indexName), err)
	}

	return out.Items, nil
}

// QueryAll performs a complete query, handling pagination internally.
func (c *DynamoDBClient) QueryAll(
	ctx context.Context,
	tableName string,
	indexName *string,
	keyCondExpr string,
	exprAttrValues map[string]types.AttributeValue,
) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue

	for {
		input := &dynamodb.QueryInput{
			TableName:                 aws.String(tableName),
			KeyConditionExpression:    aws.String(keyCondExpr),
			ExpressionAttributeValues: exprAttrValues,
			ExclusiveStartKey:         startKey,
		}
		if indexName != nil {
			input.IndexName = indexName
		}

		out, err := c.svc.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query %s[%s]: %w", tableName, aws.ToString(indexName), err)
		}

		items = append(items, out.Items...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return items, nil
}

func (c *DynamoDBClient) ScanItems(
	ctx context.Context,
	tableName string,
	filterExpr string,
	exprAttrValues map[string]types.AttributeValue,
	exprAttrNames map[string]string,
) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue

	for {
		input := &dynamodb.ScanInput{
			TableName:                 aws.String(tableName),
			FilterExpression:          aws.String(filterExpr),
			ExpressionAttributeValues: exprAttrValues,
			ExclusiveStartKey:         startKey,
		}

		if exprAttrNames != nil {
			input.ExpressionAttributeNames = exprAttrNames
		}

		out, err := c.svc.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", tableName, err)
		}

		items = append(items, out.Items...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return items, nil
}

// ScanAll walks the whole table without a filter, following pagination.
func (c *DynamoDBClient) ScanAll(
	ctx context.Context,
	tableName string,
) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue

	for {
		input := &dynamodb.ScanInput{
			TableName:         aws.String(tableName),
			ExclusiveStartKey: startKey,
		}

		out, err := c.svc.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", tableName, err)
		}

		items = append(items, out.Items...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return items, nil
}
