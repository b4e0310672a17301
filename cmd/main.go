package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/devenspear/devatar/application/ports/outbound"
	"github.com/devenspear/devatar/application/services"
	"github.com/devenspear/devatar/config"
	"github.com/devenspear/devatar/infrastructure/adapters"
	"github.com/devenspear/devatar/infrastructure/gin_interface/controllers"
	"github.com/devenspear/devatar/infrastructure/queue"
	"github.com/devenspear/devatar/middleware"
	"github.com/gin-gonic/gin"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"
)

func main() {
	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))

	elevenLabsConfig, err := config.GetElevenLabsConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get eleven labs config")
	}

	imageGenConfig, err := config.GetImageGenConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get image generation config")
	}

	videoGenConfig, err := config.GetVideoGenConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get video generation config")
	}

	lipSyncConfig, err := config.GetLipSyncConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get lip sync config")
	}

	s3Config, err := config.GetS3Config()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get s3 config")
	}

	dynamoConfig, err := config.GetDynamoConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get dynamo config")
	}

	redisConfig, err := config.GetRedisConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get redis config")
	}

	pipelineEnvConfig, err := config.GetPipelineConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get pipeline config")
	}

	zeroLogger := adapters.NewZerologWrapper()

	panicHandler := func(p interface{}) {
		zeroLogger.Error(fmt.Errorf("%v", p), "Panic in worker pool")
	}

	workerPool, err := ants.NewPool(120, ants.WithPanicHandler(panicHandler))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create worker pool")
	}
	defer workerPool.Release()

	s3Client := s3.New(sess)
	dynamoClient := dynamodb.New(sess)

	contentFetcher := adapters.NewContentFetcher(zeroLogger)

	speechClient := adapters.NewElevenLabsSpeech(contentFetcher, elevenLabsConfig, zeroLogger)
	imageGenerator := adapters.NewImageGenerator(contentFetcher, imageGenConfig, zeroLogger)
	videoGenerator := adapters.NewVideoGenerator(contentFetcher, videoGenConfig, zeroLogger)
	lipSyncClient := adapters.NewLipSyncClient(contentFetcher, lipSyncConfig, zeroLogger)

	blobStore := adapters.NewS3BlobStore(s3Client, s3Config, zeroLogger)
	sceneStore := adapters.NewDynamoSceneStore(zeroLogger, dynamoClient, dynamoConfig)
	settingsStore := adapters.NewDynamoSettingsStore(zeroLogger, dynamoClient, dynamoConfig)
	generationLog := adapters.NewDynamoGenerationLog(zeroLogger, dynamoClient, dynamoConfig)

	pipelineConfig := services.DefaultPipelineConfig()
	pipelineConfig.PlanTier = services.PlanTier(lipSyncConfig.PlanTier)
	pipelineConfig.DefaultVoiceID = pipelineEnvConfig.DefaultVoiceID
	pipelineConfig.DefaultHeadshotSettingKey = pipelineEnvConfig.DefaultHeadshotSettingKey
	pipelineConfig.AspectRatio = pipelineEnvConfig.AspectRatio
	pipelineConfig.VideoMode = videoGenConfig.Mode
	pipelineConfig.VoiceSettings = outbound.VoiceSettings{
		Stability:       elevenLabsConfig.Stability,
		SimilarityBoost: elevenLabsConfig.SimilarityBoost,
		Style:           elevenLabsConfig.Style,
		UseSpeakerBoost: elevenLabsConfig.UseSpeakerBoost,
	}
	pipelineConfig.SignedURLTTL = pipelineEnvConfig.SignedURLTTL
	pipelineConfig.VideoPoll.Interval = time.Duration(pipelineEnvConfig.VideoPollIntervalSecs) * time.Second
	pipelineConfig.VideoPoll.MaxAttempts = pipelineEnvConfig.VideoPollMaxAttempts
	pipelineConfig.LipsyncPoll.EarlyInterval = time.Duration(pipelineEnvConfig.LipsyncEarlyIntervalSecs) * time.Second
	pipelineConfig.LipsyncPoll.EarlyAttempts = pipelineEnvConfig.LipsyncEarlyAttempts
	pipelineConfig.LipsyncPoll.Interval = time.Duration(pipelineEnvConfig.LipsyncPollIntervalSecs) * time.Second
	pipelineConfig.LipsyncPoll.MaxAttempts = pipelineEnvConfig.LipsyncPollMaxAttempts

	orchestrator := services.NewScenePipelineOrchestrator(
		pipelineConfig,
		sceneStore,
		settingsStore,
		blobStore,
		speechClient,
		imageGenerator,
		videoGenerator,
		lipSyncClient,
		contentFetcher,
		generationLog,
		zeroLogger,
		workerPool,
	)

	taskClient := queue.NewSceneTaskClient(redisConfig, zeroLogger)
	defer func() {
		if err := taskClient.Close(); err != nil {
			zeroLogger.Error(err, "failed to close task client")
		}
	}()

	taskWorker := queue.NewSceneTaskWorker(redisConfig, pipelineEnvConfig.WorkerConcurrency, orchestrator, zeroLogger)
	if err := taskWorker.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start task worker")
	}
	defer taskWorker.Shutdown()

	sceneController := controllers.NewSceneGenerationController(zeroLogger, orchestrator, taskClient)

	router := gin.Default()

	err = router.SetTrustedProxies(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set trusted proxies!")
	}

	sceneController.RegisterRoutes(router, middleware.SSEMiddleware())

	errCh := make(chan error, 1)
	go func() {
		errCh <- router.Run(":8080")
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("Failed to start server!")
	case sig := <-quit:
		zeroLogger.InfoWithFields("shutting down", map[string]interface{}{"signal": sig.String()})
	}
}
