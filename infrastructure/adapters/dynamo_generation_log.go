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

type dynamoLogItem struct {
	ID         string                 `dynamodbav:"id"`
	SceneID    string                 `dynamodbav:"scene_id"`
	ProjectID  string                 `dynamodbav:"project_id"`
	Step       string                 `dynamodbav:"step"`
	Level      string                 `dynamodbav:"level"`
	Message    string                 `dynamodbav:"message"`
	Provider   string                 `dynamodbav:"provider,omitempty"`
	DurationMs int64                  `dynamodbav:"duration_ms,omitempty"`
	Payload    map[string]interface{} `dynamodbav:"payload,omitempty"`
	CreatedAt  string                 `dynamodbav:"created_at"`
}

type dynamoGenerationLog struct {
	logger       outbound.LoggerPort
	dynamoSvc    dynamodbiface.DynamoDBAPI
	dynamoConfig *config.DynamoConfig
}

// NewDynamoGenerationLog writes append-only diagnostic rows, queryable by
// scene for operator debugging. Sink failures are logged and swallowed so
// they never abort a run.
func NewDynamoGenerationLog(logger outbound.LoggerPort, dynamoSvc dynamodbiface.DynamoDBAPI, dynamoConfig *config.DynamoConfig) outbound.GenerationLogPort {
	return &dynamoGenerationLog{
		logger:       logger,
		dynamoSvc:    dynamoSvc,
		dynamoConfig: dynamoConfig,
	}
}

func (l *dynamoGenerationLog) Append(ctx context.Context, entry domain.GenerationLog) {
	item := dynamoLogItem{
		ID:         entry.ID,
		SceneID:    entry.SceneID,
		ProjectID:  entry.ProjectID,
		Step:       string(entry.Step),
		Level:      string(entry.Level),
		Message:    entry.Message,
		Provider:   entry.Provider,
		DurationMs: entry.DurationMs,
		Payload:    entry.Payload,
		CreatedAt:  entry.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	}

	av, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		l.logger.WarnWithFields("failed to marshal generation log entry", map[string]interface{}{
			"scene_id": entry.SceneID,
			"error":    err.Error(),
		})
		return
	}

	_, err = l.dynamoSvc.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		Item:      av,
		TableName: aws.String(l.dynamoConfig.LogsTable),
	})
	if err != nil {
		l.logger.WarnWithFields("failed to append generation log entry", map[string]interface{}{
			"scene_id": entry.SceneID,
			"error":    err.Error(),
		})
	}
}
