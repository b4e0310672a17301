package adapters

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/devenspear/devatar/application/ports/outbound"
	"github.com/devenspear/devatar/config"
	"github.com/devenspear/devatar/domain"
)

type dynamoSceneItem struct {
	ID        string `dynamodbav:"id"`
	ProjectID string `dynamodbav:"project_id"`
	Name      string `dynamodbav:"name"`
	Ordinal   int    `dynamodbav:"ordinal"`
	Status    string `dynamodbav:"status"`

	Dialogue           string `dynamodbav:"dialogue"`
	Environment        string `dynamodbav:"environment"`
	Wardrobe           string `dynamodbav:"wardrobe"`
	Movement           string `dynamodbav:"movement"`
	CameraStyle        string `dynamodbav:"camera_style"`
	Mood               string `dynamodbav:"mood"`
	Lighting           string `dynamodbav:"lighting"`
	TargetDurationSecs int    `dynamodbav:"target_duration_secs"`
	VoiceID            string `dynamodbav:"voice_id"`
	HeadshotAssetID    string `dynamodbav:"headshot_asset_id"`

	AudioURL          string  `dynamodbav:"audio_url"`
	AudioDurationSecs float64 `dynamodbav:"audio_duration_secs"`
	AudioModel        string  `dynamodbav:"audio_model"`
	ImageURL          string  `dynamodbav:"image_url"`
	ImagePrompt       string  `dynamodbav:"image_prompt"`
	ImageModel        string  `dynamodbav:"image_model"`
	RawVideoURL       string  `dynamodbav:"raw_video_url"`
	VideoPrompt       string  `dynamodbav:"video_prompt"`
	VideoModel        string  `dynamodbav:"video_model"`
	VideoTaskID       string  `dynamodbav:"video_task_id"`
	LipsyncVideoURL   string  `dynamodbav:"lipsync_video_url"`
	LipsyncModel      string  `dynamodbav:"lipsync_model"`
	LipsyncJobID      string  `dynamodbav:"lipsync_job_id"`
	FinalVideoURL     string  `dynamodbav:"final_video_url"`

	FailureReason string `dynamodbav:"failure_reason"`
	RetryCount    int    `dynamodbav:"retry_count"`
	LastAttemptAt string `dynamodbav:"last_attempt_at"`

	CreatedAt string `dynamodbav:"created_at"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

type dynamoProjectItem struct {
	ID             string `dynamodbav:"id"`
	Name           string `dynamodbav:"name"`
	DefaultVoiceID string `dynamodbav:"default_voice_id"`
	AspectRatio    string `dynamodbav:"aspect_ratio"`
}

type dynamoAssetItem struct {
	ID   string `dynamodbav:"id"`
	Kind string `dynamodbav:"kind"`
	URL  string `dynamodbav:"url"`
}

type dynamoSceneStore struct {
	logger       outbound.LoggerPort
	dynamoSvc    dynamodbiface.DynamoDBAPI
	dynamoConfig *config.DynamoConfig
}

func NewDynamoSceneStore(logger outbound.LoggerPort, dynamoSvc dynamodbiface.DynamoDBAPI, dynamoConfig *config.DynamoConfig) outbound.SceneStorePort {
	return &dynamoSceneStore{
		logger:       logger,
		dynamoSvc:    dynamoSvc,
		dynamoConfig: dynamoConfig,
	}
}

func (s *dynamoSceneStore) GetByID(ctx context.Context, id string) (*domain.SceneWithRefs, error) {
	item, err := s.getSceneItem(ctx, id)
	if err != nil {
		return nil, err
	}

	refs := &domain.SceneWithRefs{Scene: item.toScene()}

	project, err := s.getProject(ctx, item.ProjectID)
	if err != nil {
		return nil, err
	}
	if project != nil {
		refs.Project = *project
	}

	if item.HeadshotAssetID != "" {
		headshot, err := s.getAsset(ctx, item.HeadshotAssetID)
		if err != nil {
			return nil, err
		}
		refs.Headshot = headshot
	}

	return refs, nil
}

// BeginRun is the guard check and first status write in one conditional
// update, so two triggers racing each other cannot both start a run.
func (s *dynamoSceneStore) BeginRun(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.dynamoSvc.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.dynamoConfig.ScenesTable),
		Key: map[string]*dynamodb.AttributeValue{
			"id": {S: aws.String(id)},
		},
		ConditionExpression: aws.String("#status = :draft OR #status = :failed OR #status = :completed"),
		UpdateExpression: aws.String("SET #status = :next, failure_reason = :empty, " +
			"audio_url = :empty, audio_model = :empty, image_url = :empty, image_prompt = :empty, image_model = :empty, " +
			"raw_video_url = :empty, video_prompt = :empty, video_model = :empty, video_task_id = :empty, " +
			"lipsync_video_url = :empty, lipsync_model = :empty, lipsync_job_id = :empty, final_video_url = :empty, " +
			"last_attempt_at = :now, updated_at = :now"),
		ExpressionAttributeNames: map[string]*string{
			"#status": aws.String("status"),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":draft":     {S: aws.String(string(domain.SceneStatusDraft))},
			":failed":    {S: aws.String(string(domain.SceneStatusFailed))},
			":completed": {S: aws.String(string(domain.SceneStatusCompleted))},
			":next":      {S: aws.String(string(domain.SceneStatusGeneratingAudio))},
			":empty":     {S: aws.String("")},
			":now":       {S: aws.String(now)},
		},
	})
	if err != nil {
		var awsErr awserr.Error
		if errors.As(err, &awsErr) && awsErr.Code() == dynamodb.ErrCodeConditionalCheckFailedException {
			item, getErr := s.getSceneItem(ctx, id)
			if getErr != nil {
				var notFound *domain.NotFoundError
				if errors.As(getErr, &notFound) {
					// The condition failed because the scene is gone, not
					// because of a concurrent run.
					return getErr
				}
				return &domain.ConflictError{SceneID: id}
			}
			return &domain.ConflictError{SceneID: id, Status: domain.SceneStatus(item.Status)}
		}
		return err
	}
	return nil
}

// Update applies a partial field map as one write and returns the updated
// scene.
func (s *dynamoSceneStore) Update(ctx context.Context, id string, fields map[string]interface{}) (*domain.Scene, error) {
	names := map[string]*string{
		"#updated": aws.String("updated_at"),
	}
	values := map[string]*dynamodb.AttributeValue{
		":updated": {S: aws.String(time.Now().UTC().Format(time.RFC3339Nano))},
	}
	sets := []string{"#updated = :updated"}

	keys := make([]string, 0, len(fields))
	for field := range fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)

	for i, field := range keys {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		av, err := marshalSceneField(fields[field])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal scene field %s: %w", field, err)
		}
		names[nameKey] = aws.String(field)
		values[valueKey] = av
		sets = append(sets, nameKey+" = "+valueKey)
	}

	out, err := s.dynamoSvc.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.dynamoConfig.ScenesTable),
		Key: map[string]*dynamodb.AttributeValue{
			"id": {S: aws.String(id)},
		},
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              aws.String(dynamodb.ReturnValueAllNew),
	})
	if err != nil {
		s.logger.ErrorWithFields(err, "failed to update scene", map[string]interface{}{
			"scene_id": id,
		})
		return nil, err
	}

	var item dynamoSceneItem
	if err := dynamodbattribute.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, err
	}
	scene := item.toScene()
	return &scene, nil
}

func (s *dynamoSceneStore) getSceneItem(ctx context.Context, id string) (*dynamoSceneItem, error) {
	out, err := s.dynamoSvc.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.dynamoConfig.ScenesTable),
		Key: map[string]*dynamodb.AttributeValue{
			"id": {S: aws.String(id)},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, &domain.NotFoundError{Entity: "scene", ID: id}
	}

	var item dynamoSceneItem
	if err := dynamodbattribute.UnmarshalMap(out.Item, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *dynamoSceneStore) getProject(ctx context.Context, id string) (*domain.Project, error) {
	if id == "" {
		return nil, nil
	}
	out, err := s.dynamoSvc.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.dynamoConfig.ProjectsTable),
		Key: map[string]*dynamodb.AttributeValue{
			"id": {S: aws.String(id)},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var item dynamoProjectItem
	if err := dynamodbattribute.UnmarshalMap(out.Item, &item); err != nil {
		return nil, err
	}
	return &domain.Project{
		ID:             item.ID,
		Name:           item.Name,
		DefaultVoiceID: item.DefaultVoiceID,
		AspectRatio:    item.AspectRatio,
	}, nil
}

func (s *dynamoSceneStore) getAsset(ctx context.Context, id string) (*domain.Asset, error) {
	out, err := s.dynamoSvc.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.dynamoConfig.AssetsTable),
		Key: map[string]*dynamodb.AttributeValue{
			"id": {S: aws.String(id)},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var item dynamoAssetItem
	if err := dynamodbattribute.UnmarshalMap(out.Item, &item); err != nil {
		return nil, err
	}
	return &domain.Asset{
		ID:   item.ID,
		Kind: domain.AssetKind(item.Kind),
		URL:  item.URL,
	}, nil
}

func marshalSceneField(value interface{}) (*dynamodb.AttributeValue, error) {
	switch v := value.(type) {
	case domain.SceneStatus:
		return &dynamodb.AttributeValue{S: aws.String(string(v))}, nil
	case time.Time:
		return &dynamodb.AttributeValue{S: aws.String(v.UTC().Format(time.RFC3339Nano))}, nil
	default:
		return dynamodbattribute.Marshal(value)
	}
}

func (i *dynamoSceneItem) toScene() domain.Scene {
	return domain.Scene{
		ID:        i.ID,
		ProjectID: i.ProjectID,
		Name:      i.Name,
		Ordinal:   i.Ordinal,
		Status:    domain.SceneStatus(i.Status),

		Dialogue:           i.Dialogue,
		Environment:        i.Environment,
		Wardrobe:           i.Wardrobe,
		Movement:           i.Movement,
		CameraStyle:        i.CameraStyle,
		Mood:               i.Mood,
		Lighting:           i.Lighting,
		TargetDurationSecs: i.TargetDurationSecs,
		VoiceID:            i.VoiceID,
		HeadshotAssetID:    i.HeadshotAssetID,

		AudioURL:          i.AudioURL,
		AudioDurationSecs: i.AudioDurationSecs,
		AudioModel:        i.AudioModel,
		ImageURL:          i.ImageURL,
		ImagePrompt:       i.ImagePrompt,
		ImageModel:        i.ImageModel,
		RawVideoURL:       i.RawVideoURL,
		VideoPrompt:       i.VideoPrompt,
		VideoModel:        i.VideoModel,
		VideoTaskID:       i.VideoTaskID,
		LipsyncVideoURL:   i.LipsyncVideoURL,
		LipsyncModel:      i.LipsyncModel,
		LipsyncJobID:      i.LipsyncJobID,
		FinalVideoURL:     i.FinalVideoURL,

		FailureReason: i.FailureReason,
		RetryCount:    i.RetryCount,
		LastAttemptAt: parseDynamoTime(i.LastAttemptAt),

		CreatedAt: parseDynamoTime(i.CreatedAt),
		UpdatedAt: parseDynamoTime(i.UpdatedAt),
	}
}

func parseDynamoTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
