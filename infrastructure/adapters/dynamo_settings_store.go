package adapters

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/devenspear/devatar/application/ports/outbound"
	"github.com/devenspear/devatar/config"
	"github.com/devenspear/devatar/domain"
)

type dynamoSettingItem struct {
	Key   string `dynamodbav:"key"`
	Value string `dynamodbav:"value"`
}

type dynamoSettingsStore struct {
	logger       outbound.LoggerPort
	dynamoSvc    dynamodbiface.DynamoDBAPI
	dynamoConfig *config.DynamoConfig
}

// NewDynamoSettingsStore resolves process-wide settings to assets, e.g. the
// default headshot every scene falls back to.
func NewDynamoSettingsStore(logger outbound.LoggerPort, dynamoSvc dynamodbiface.DynamoDBAPI, dynamoConfig *config.DynamoConfig) outbound.SettingsPort {
	return &dynamoSettingsStore{
		logger:       logger,
		dynamoSvc:    dynamoSvc,
		dynamoConfig: dynamoConfig,
	}
}

func (s *dynamoSettingsStore) ResolveAssetSetting(ctx context.Context, key string) (*domain.Asset, error) {
	out, err := s.dynamoSvc.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.dynamoConfig.SettingsTable),
		Key: map[string]*dynamodb.AttributeValue{
			"key": {S: aws.String(key)},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var item dynamoSettingItem
	if err := dynamodbattribute.UnmarshalMap(out.Item, &item); err != nil {
		return nil, err
	}
	if item.Value == "" {
		return nil, nil
	}

	assetOut, err := s.dynamoSvc.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.dynamoConfig.AssetsTable),
		Key: map[string]*dynamodb.AttributeValue{
			"id": {S: aws.String(item.Value)},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(assetOut.Item) == 0 {
		s.logger.WarnWithFields("setting points at a missing asset", map[string]interface{}{
			"setting_key": key,
			"asset_id":    item.Value,
		})
		return nil, nil
	}

	var asset dynamoAssetItem
	if err := dynamodbattribute.UnmarshalMap(assetOut.Item, &asset); err != nil {
		return nil, err
	}
	return &domain.Asset{
		ID:   asset.ID,
		Kind: domain.AssetKind(asset.Kind),
		URL:  asset.URL,
	}, nil
}
