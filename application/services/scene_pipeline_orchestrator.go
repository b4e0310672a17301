package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/devenspear/devatar/application/ports/inbound"
	"github.com/devenspear/devatar/application/ports/outbound"
	"github.com/devenspear/devatar/domain"
	"github.com/google/uuid"
)

// PipelineConfig carries the orchestrator's tunables. Poll schedules are
// injected so tests can shrink the intervals.
type PipelineConfig struct {
	PlanTier                  PlanTier
	DefaultVoiceID            string
	VoiceSettings             outbound.VoiceSettings
	DefaultHeadshotSettingKey string
	SignedURLTTL              time.Duration
	AspectRatio               string
	VideoMode                 string
	ImagePoll                 PollSchedule
	VideoPoll                 PollSchedule
	LipsyncPoll               PollSchedule
}

// DefaultPipelineConfig returns the production poll budgets: video polls
// every 25s capped near 17 minutes, lip-sync polls every 10s for the first
// two minutes then every 15s, capped near 14 minutes.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		PlanTier:                  TierCreator,
		DefaultHeadshotSettingKey: "default_headshot_asset_id",
		SignedURLTTL:              30 * time.Minute,
		AspectRatio:               "9:16",
		VideoMode:                 "std",
		VoiceSettings: outbound.VoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Style:           0,
			UseSpeakerBoost: true,
		},
		ImagePoll: PollSchedule{
			Interval:    10 * time.Second,
			MaxAttempts: 30,
			LogEvery:    6,
		},
		VideoPoll: PollSchedule{
			Interval:    25 * time.Second,
			MaxAttempts: 40,
			LogEvery:    4,
		},
		LipsyncPoll: PollSchedule{
			EarlyInterval: 10 * time.Second,
			EarlyAttempts: 12,
			Interval:      15 * time.Second,
			MaxAttempts:   60,
			LogEvery:      6,
		},
	}
}

type scenePipelineOrchestrator struct {
	cfg        PipelineConfig
	scenes     outbound.SceneStorePort
	settings   outbound.SettingsPort
	blobs      outbound.BlobStorePort
	speech     outbound.SpeechPort
	images     outbound.ImageGeneratorPort
	videos     outbound.VideoGeneratorPort
	lipsync    outbound.LipSyncPort
	downloader outbound.DownloaderPort
	genLogs    outbound.GenerationLogPort
	probe      *recoveryProbe
	logger     outbound.LoggerPort
	workerPool outbound.TaskDispatcher
}

func NewScenePipelineOrchestrator(
	cfg PipelineConfig,
	scenes outbound.SceneStorePort,
	settings outbound.SettingsPort,
	blobs outbound.BlobStorePort,
	speech outbound.SpeechPort,
	images outbound.ImageGeneratorPort,
	videos outbound.VideoGeneratorPort,
	lipsync outbound.LipSyncPort,
	downloader outbound.DownloaderPort,
	genLogs outbound.GenerationLogPort,
	logger outbound.LoggerPort,
	workerPool outbound.TaskDispatcher) inbound.ScenePipelineOrchestratorPort {
	return &scenePipelineOrchestrator{
		cfg:        cfg,
		scenes:     scenes,
		settings:   settings,
		blobs:      blobs,
		speech:     speech,
		images:     images,
		videos:     videos,
		lipsync:    lipsync,
		downloader: downloader,
		genLogs:    genLogs,
		probe:      NewRecoveryProbe(lipsync, logger),
		logger:     logger,
		workerPool: workerPool,
	}
}

// runState carries the per-run working set: the loaded scene with its refs
// and the blob keys of this run's uploads. Keys are kept in memory only;
// a restarted run re-creates them because restarting means re-running the
// whole pipeline.
type runState struct {
	refs        *domain.SceneWithRefs
	events      chan<- domain.ProgressEvent
	audioKey    string
	imageKey    string // empty when the image is a pre-supplied headshot URL
	imageURL    string
	rawVideoKey string
}

func (o *scenePipelineOrchestrator) Run(ctx context.Context, sceneID string) (*domain.Scene, error) {
	return o.run(ctx, sceneID, nil)
}

func (o *scenePipelineOrchestrator) RunStream(ctx context.Context, sceneID string) (<-chan domain.ProgressEvent, <-chan error) {
	events := make(chan domain.ProgressEvent, 16)
	errCh := make(chan error, 1)

	err := o.workerPool.Submit(func() {
		defer close(events)
		defer close(errCh)
		if _, runErr := o.run(ctx, sceneID, events); runErr != nil {
			errCh <- runErr
		}
	})
	if err != nil {
		errCh <- err
		close(events)
		close(errCh)
	}

	return events, errCh
}

func (o *scenePipelineOrchestrator) run(ctx context.Context, sceneID string, events chan<- domain.ProgressEvent) (*domain.Scene, error) {
	refs, err := o.scenes.GetByID(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	if !refs.Status.CanStartRun() {
		return nil, &domain.ConflictError{SceneID: sceneID, Status: refs.Status}
	}

	if ok, msg := ValidateAudioDuration(refs.Dialogue, o.cfg.PlanTier); !ok {
		// This write happens before BeginRun has cleared the record, so it
		// must clear stale outputs itself: a FAILED scene may never keep a
		// final video URL from an earlier completed run.
		verr := &domain.ValidationError{Reason: msg}
		o.failRun(ctx, &refs.Scene, domain.StepValidation, "", verr, events, clearedOutputFields())
		return nil, verr
	}

	if err := o.scenes.BeginRun(ctx, sceneID); err != nil {
		return nil, err
	}
	refs.Status = domain.SceneStatusGeneratingAudio
	refs.FailureReason = ""

	st := &runState{refs: refs, events: events}

	if err := o.runAudioStep(ctx, st); err != nil {
		o.failRun(ctx, &refs.Scene, domain.StepAudioGeneration, "", err, events, nil)
		return nil, err
	}
	if err := o.runImageStep(ctx, st); err != nil {
		o.failRun(ctx, &refs.Scene, domain.StepImageGeneration, "", err, events, nil)
		return nil, err
	}
	if err := o.runVideoStep(ctx, st); err != nil {
		o.failRun(ctx, &refs.Scene, domain.StepVideoGeneration, o.videos.Model(), err, events, nil)
		return nil, err
	}
	lipsyncURL, err := o.runLipsyncStep(ctx, st)
	if err != nil {
		o.failRun(ctx, &refs.Scene, domain.StepLipsyncApplication, o.lipsync.Model(), err, events, nil)
		return nil, err
	}
	scene, err := o.finalize(ctx, st, lipsyncURL)
	if err != nil {
		o.failRun(ctx, &refs.Scene, domain.StepVideoAssembly, "", err, events, nil)
		return nil, err
	}

	return scene, nil
}

// Step 1 — audio. The speech vendor is request/response, so there is no
// poll loop here.
func (o *scenePipelineOrchestrator) runAudioStep(ctx context.Context, st *runState) error {
	scene := &st.refs.Scene
	started := time.Now()
	o.appendLog(ctx, scene, domain.StepAudioGeneration, domain.LogLevelDebug, "audio generation started", "", 0, nil)
	o.emit(st.events, scene.ID, domain.StepAudioGeneration, domain.ProgressStarted, "", "")

	voiceID := scene.VoiceID
	if voiceID == "" {
		voiceID = st.refs.Project.DefaultVoiceID
	}
	if voiceID == "" {
		voiceID = o.cfg.DefaultVoiceID
	}
	if voiceID == "" {
		return &domain.ValidationError{Reason: "no voice configured: scene, project and system defaults are all empty"}
	}

	speech, err := o.speech.Synthesize(ctx, outbound.SynthesizeSpeechRequest{
		Text:     scene.Dialogue,
		VoiceID:  voiceID,
		Settings: o.cfg.VoiceSettings,
	})
	if err != nil {
		return err
	}

	key := domain.SceneBlobKey(scene.ProjectID, scene.ID, "audio", extForContentType(speech.ContentType, "mp3"), time.Now())
	audioURL, err := o.blobs.Upload(ctx, key, speech.Audio, speech.ContentType)
	if err != nil {
		return err
	}

	if err := o.persist(ctx, st, map[string]interface{}{
		outbound.SceneFieldStatus:            domain.SceneStatusGeneratingImage,
		outbound.SceneFieldAudioURL:          audioURL,
		outbound.SceneFieldAudioDurationSecs: EstimateSpokenSeconds(scene.Dialogue),
		outbound.SceneFieldAudioModel:        speech.Model,
	}); err != nil {
		return err
	}
	st.audioKey = key

	elapsed := time.Since(started).Milliseconds()
	o.appendLog(ctx, scene, domain.StepAudioGeneration, domain.LogLevelInfo,
		fmt.Sprintf("audio generated for %d characters", speech.CharacterCount), speech.Model, elapsed, nil)
	o.emit(st.events, scene.ID, domain.StepAudioGeneration, domain.ProgressCompleted, "", audioURL)
	return nil
}

// Step 2 — image. A resolvable identity image skips the vendor entirely:
// avatar consistency from a real photo beats generative fallback and costs
// nothing.
func (o *scenePipelineOrchestrator) runImageStep(ctx context.Context, st *runState) error {
	scene := &st.refs.Scene
	started := time.Now()
	o.appendLog(ctx, scene, domain.StepImageGeneration, domain.LogLevelDebug, "image generation started", "", 0, nil)
	o.emit(st.events, scene.ID, domain.StepImageGeneration, domain.ProgressStarted, "", "")

	identity, err := o.resolveIdentityImage(ctx, st.refs)
	if err != nil {
		return err
	}
	if identity != nil {
		if err := o.persist(ctx, st, map[string]interface{}{
			outbound.SceneFieldStatus:      domain.SceneStatusGeneratingVideo,
			outbound.SceneFieldImageURL:    identity.URL,
			outbound.SceneFieldImagePrompt: "",
			outbound.SceneFieldImageModel:  domain.ImageModelUploaded,
		}); err != nil {
			return err
		}
		st.imageKey = ""
		st.imageURL = identity.URL
		o.appendLog(ctx, scene, domain.StepImageGeneration, domain.LogLevelInfo,
			"using uploaded headshot, skipping image generation", domain.ImageModelUploaded, time.Since(started).Milliseconds(), nil)
		o.emit(st.events, scene.ID, domain.StepImageGeneration, domain.ProgressCompleted, "headshot", identity.URL)
		return nil
	}

	prompt := buildImagePrompt(scene)
	req := outbound.GenerateImageRequest{Prompt: prompt, Width: 1024, Height: 1024}

	var imageBytes []byte
	var model string
	if async, ok := o.images.(outbound.AsyncImageGeneratorPort); ok {
		taskID, err := async.Submit(ctx, req)
		if err != nil {
			return err
		}
		imageURL, err := o.pollImage(ctx, scene, async, taskID)
		if err != nil {
			return err
		}
		imageBytes, _, err = o.downloader.Download(ctx, imageURL)
		if err != nil {
			return err
		}
		model = async.Model()
	} else {
		generated, err := o.images.Generate(ctx, req)
		if err != nil {
			return err
		}
		imageBytes = generated.Image
		model = generated.Model
	}

	key := domain.SceneBlobKey(scene.ProjectID, scene.ID, "image", "png", time.Now())
	imageURL, err := o.blobs.Upload(ctx, key, imageBytes, "image/png")
	if err != nil {
		return err
	}

	if err := o.persist(ctx, st, map[string]interface{}{
		outbound.SceneFieldStatus:      domain.SceneStatusGeneratingVideo,
		outbound.SceneFieldImageURL:    imageURL,
		outbound.SceneFieldImagePrompt: prompt,
		outbound.SceneFieldImageModel:  model,
	}); err != nil {
		return err
	}
	st.imageKey = key
	st.imageURL = imageURL

	o.appendLog(ctx, scene, domain.StepImageGeneration, domain.LogLevelInfo,
		"image generated", model, time.Since(started).Milliseconds(), map[string]interface{}{"prompt": prompt})
	o.emit(st.events, scene.ID, domain.StepImageGeneration, domain.ProgressCompleted, "", imageURL)
	return nil
}

// Step 3 — video. Submit, persist the task id as a checkpoint, then poll to
// a terminal state within the attempt budget.
func (o *scenePipelineOrchestrator) runVideoStep(ctx context.Context, st *runState) error {
	scene := &st.refs.Scene
	started := time.Now()
	o.appendLog(ctx, scene, domain.StepVideoGeneration, domain.LogLevelDebug, "video generation started", "", 0, nil)
	o.emit(st.events, scene.ID, domain.StepVideoGeneration, domain.ProgressStarted, "", "")

	// The video vendor fetches the image by URL, so a private blob needs a
	// time-limited signed link. A headshot URL is used as-is.
	imageRef := st.imageURL
	if st.imageKey != "" {
		signed, err := o.blobs.SignedReadURL(ctx, st.imageKey, o.cfg.SignedURLTTL)
		if err != nil {
			return err
		}
		imageRef = signed
	}

	prompt := buildMotionPrompt(scene)
	duration := scene.TargetDurationSecs
	if duration == 0 {
		duration = int(math.Ceil(scene.AudioDurationSecs))
	}
	if duration == 0 {
		duration = 5
	}
	aspect := st.refs.Project.AspectRatio
	if aspect == "" {
		aspect = o.cfg.AspectRatio
	}

	taskID, err := o.videos.Submit(ctx, outbound.SubmitVideoRequest{
		ImageURL:     imageRef,
		Prompt:       prompt,
		DurationSecs: duration,
		AspectRatio:  aspect,
		Mode:         o.cfg.VideoMode,
	})
	if err != nil {
		return err
	}
	if err := o.persist(ctx, st, map[string]interface{}{
		outbound.SceneFieldVideoTaskID: taskID,
		outbound.SceneFieldVideoPrompt: prompt,
	}); err != nil {
		return err
	}

	videoURL, err := o.pollVideo(ctx, scene, taskID)
	if err != nil {
		return err
	}

	data, _, err := o.downloader.Download(ctx, videoURL)
	if err != nil {
		return err
	}
	key := domain.SceneBlobKey(scene.ProjectID, scene.ID, "video", "mp4", time.Now())
	rawVideoURL, err := o.blobs.Upload(ctx, key, data, "video/mp4")
	if err != nil {
		return err
	}

	if err := o.persist(ctx, st, map[string]interface{}{
		outbound.SceneFieldStatus:      domain.SceneStatusApplyingLipsync,
		outbound.SceneFieldRawVideoURL: rawVideoURL,
		outbound.SceneFieldVideoModel:  o.videos.Model(),
	}); err != nil {
		return err
	}
	st.rawVideoKey = key

	o.appendLog(ctx, scene, domain.StepVideoGeneration, domain.LogLevelInfo,
		"video generated", o.videos.Model(), time.Since(started).Milliseconds(), map[string]interface{}{"task_id": taskID})
	o.emit(st.events, scene.ID, domain.StepVideoGeneration, domain.ProgressCompleted, "", rawVideoURL)
	return nil
}

// Step 4 — lip-sync, including the completed-without-URL anomaly handling.
func (o *scenePipelineOrchestrator) runLipsyncStep(ctx context.Context, st *runState) (string, error) {
	scene := &st.refs.Scene
	started := time.Now()
	o.appendLog(ctx, scene, domain.StepLipsyncApplication, domain.LogLevelDebug, "lip-sync started", "", 0, nil)
	o.emit(st.events, scene.ID, domain.StepLipsyncApplication, domain.ProgressStarted, "", "")

	videoURL, err := o.blobs.SignedReadURL(ctx, st.rawVideoKey, o.cfg.SignedURLTTL)
	if err != nil {
		return "", err
	}
	audioURL, err := o.blobs.SignedReadURL(ctx, st.audioKey, o.cfg.SignedURLTTL)
	if err != nil {
		return "", err
	}

	jobID, err := o.lipsync.Submit(ctx, videoURL, audioURL)
	if err != nil {
		return "", err
	}
	if err := o.persist(ctx, st, map[string]interface{}{
		outbound.SceneFieldLipsyncJobID: jobID,
	}); err != nil {
		return "", err
	}

	outputURL, err := o.pollLipsync(ctx, scene, jobID)
	if err != nil {
		return "", err
	}

	o.appendLog(ctx, scene, domain.StepLipsyncApplication, domain.LogLevelInfo,
		"lip-sync applied", o.lipsync.Model(), time.Since(started).Milliseconds(), map[string]interface{}{"job_id": jobID})
	o.emit(st.events, scene.ID, domain.StepLipsyncApplication, domain.ProgressCompleted, "", outputURL)
	return outputURL, nil
}

// Finalize — re-host the lip-synced video under the scene's final key and
// persist completion in one write.
func (o *scenePipelineOrchestrator) finalize(ctx context.Context, st *runState, lipsyncOutputURL string) (*domain.Scene, error) {
	scene := &st.refs.Scene
	started := time.Now()
	o.emit(st.events, scene.ID, domain.StepVideoAssembly, domain.ProgressStarted, "", "")

	data, _, err := o.downloader.Download(ctx, lipsyncOutputURL)
	if err != nil {
		return nil, err
	}
	key := domain.SceneBlobKey(scene.ProjectID, scene.ID, "final", "mp4", time.Now())
	finalURL, err := o.blobs.Upload(ctx, key, data, "video/mp4")
	if err != nil {
		return nil, err
	}

	updated, err := o.scenes.Update(ctx, scene.ID, map[string]interface{}{
		outbound.SceneFieldStatus:          domain.SceneStatusCompleted,
		outbound.SceneFieldLipsyncVideoURL: finalURL,
		outbound.SceneFieldFinalVideoURL:   finalURL,
		outbound.SceneFieldLipsyncModel:    o.lipsync.Model(),
		outbound.SceneFieldLastAttemptAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	st.refs.Scene = *updated

	o.appendLog(ctx, scene, domain.StepVideoAssembly, domain.LogLevelInfo,
		"pipeline completed", "", time.Since(started).Milliseconds(), nil)
	o.emit(st.events, scene.ID, domain.StepVideoAssembly, domain.ProgressCompleted, "pipeline completed", finalURL)
	return updated, nil
}

func (o *scenePipelineOrchestrator) pollImage(ctx context.Context, scene *domain.Scene, gen outbound.AsyncImageGeneratorPort, taskID string) (string, error) {
	sched := o.cfg.ImagePoll
	for attempt := 0; attempt < sched.MaxAttempts; attempt++ {
		if err := waitNext(ctx, sched.Delay(attempt)); err != nil {
			return "", err
		}
		res, err := gen.Poll(ctx, taskID)
		if err != nil {
			o.logger.WarnWithFields("image poll failed, retrying", map[string]interface{}{
				"scene_id": scene.ID, "task_id": taskID, "error": err.Error(),
			})
			continue
		}
		switch res.Status {
		case outbound.TaskStatusCompleted:
			if res.ImageURL == "" {
				return "", &domain.ProviderError{Provider: gen.Model(), Message: "image task completed without an image url"}
			}
			return res.ImageURL, nil
		case outbound.TaskStatusFailed:
			return "", &domain.ProviderError{Provider: gen.Model(), Message: res.Error}
		default:
			if sched.ShouldLog(attempt) {
				o.appendLog(ctx, scene, domain.StepImageGeneration, domain.LogLevelDebug,
					fmt.Sprintf("image task %s still %s (poll %d/%d)", taskID, res.Status, attempt+1, sched.MaxAttempts), gen.Model(), 0, nil)
			}
		}
	}
	return "", &domain.TimeoutError{Provider: "image generation", TaskID: taskID, Attempts: sched.MaxAttempts}
}

func (o *scenePipelineOrchestrator) pollVideo(ctx context.Context, scene *domain.Scene, taskID string) (string, error) {
	sched := o.cfg.VideoPoll
	for attempt := 0; attempt < sched.MaxAttempts; attempt++ {
		if err := waitNext(ctx, sched.Delay(attempt)); err != nil {
			return "", err
		}
		res, err := o.videos.Poll(ctx, taskID)
		if err != nil {
			o.logger.WarnWithFields("video poll failed, retrying", map[string]interface{}{
				"scene_id": scene.ID, "task_id": taskID, "error": err.Error(),
			})
			continue
		}
		switch res.Status {
		case outbound.TaskStatusCompleted:
			if res.VideoURL == "" {
				return "", &domain.ProviderError{Provider: o.videos.Model(), Message: "video task completed without a video url"}
			}
			o.appendLog(ctx, scene, domain.StepVideoGeneration, domain.LogLevelDebug,
				fmt.Sprintf("video task %s completed after %d polls", taskID, attempt+1), o.videos.Model(), 0, nil)
			return res.VideoURL, nil
		case outbound.TaskStatusFailed:
			return "", &domain.ProviderError{Provider: o.videos.Model(), Message: res.Error}
		default:
			if sched.ShouldLog(attempt) {
				o.appendLog(ctx, scene, domain.StepVideoGeneration, domain.LogLevelDebug,
					fmt.Sprintf("video task %s still %s, progress %d%% (poll %d/%d)", taskID, res.Status, res.Progress, attempt+1, sched.MaxAttempts),
					o.videos.Model(), 0, nil)
			}
		}
	}
	return "", &domain.TimeoutError{Provider: "video generation", TaskID: taskID, Attempts: sched.MaxAttempts}
}

func (o *scenePipelineOrchestrator) pollLipsync(ctx context.Context, scene *domain.Scene, jobID string) (string, error) {
	sched := o.cfg.LipsyncPoll
	sawAnomaly := false
	for attempt := 0; attempt < sched.MaxAttempts; attempt++ {
		if err := waitNext(ctx, sched.Delay(attempt)); err != nil {
			return "", err
		}
		res, err := o.lipsync.Poll(ctx, jobID)
		if err != nil {
			o.logger.WarnWithFields("lip-sync poll failed, retrying", map[string]interface{}{
				"scene_id": scene.ID, "job_id": jobID, "error": err.Error(),
			})
			continue
		}
		switch res.Status {
		case outbound.TaskStatusCompleted:
			if res.VideoURL != "" {
				return res.VideoURL, nil
			}
			// Known vendor anomaly: success reported, output URL missing.
			// Trusting the status field here would silently lose completed
			// work, so probe the raw API for the asset.
			sawAnomaly = true
			o.appendLog(ctx, scene, domain.StepLipsyncApplication, domain.LogLevelWarn,
				fmt.Sprintf("job %s reported completed without an output url, probing raw status", jobID), o.lipsync.Model(), 0, nil)
			if recovered, found, perr := o.probe.Probe(ctx, jobID); perr == nil && found {
				return recovered, nil
			}
		case outbound.TaskStatusFailed:
			return "", &domain.ProviderError{Provider: o.lipsync.Model(), Message: res.Error}
		default:
			if sched.ShouldLog(attempt) {
				o.appendLog(ctx, scene, domain.StepLipsyncApplication, domain.LogLevelDebug,
					fmt.Sprintf("job %s still %s (poll %d/%d)", jobID, res.Status, attempt+1, sched.MaxAttempts), o.lipsync.Model(), 0, nil)
			}
		}
	}

	// One last probe before declaring the run dead.
	if recovered, found, perr := o.probe.Probe(ctx, jobID); perr == nil && found {
		return recovered, nil
	}
	if sawAnomaly {
		return "", &domain.RecoveryExhaustedError{JobID: jobID}
	}
	return "", &domain.TimeoutError{Provider: "lip-sync", TaskID: jobID, Attempts: sched.MaxAttempts}
}

// persist applies one step's whole output atomically and refreshes the
// in-memory scene from the returned record.
func (o *scenePipelineOrchestrator) persist(ctx context.Context, st *runState, fields map[string]interface{}) error {
	updated, err := o.scenes.Update(ctx, st.refs.ID, fields)
	if err != nil {
		return err
	}
	if updated != nil {
		st.refs.Scene = *updated
	}
	return nil
}

// clearedOutputFields maps every prior-run output field to its zero value.
// BeginRun clears these as part of its conditional update; the pre-flight
// failure path clears them explicitly since it fails before BeginRun.
func clearedOutputFields() map[string]interface{} {
	return map[string]interface{}{
		outbound.SceneFieldAudioURL:          "",
		outbound.SceneFieldAudioDurationSecs: float64(0),
		outbound.SceneFieldAudioModel:        "",
		outbound.SceneFieldImageURL:          "",
		outbound.SceneFieldImagePrompt:       "",
		outbound.SceneFieldImageModel:        "",
		outbound.SceneFieldRawVideoURL:       "",
		outbound.SceneFieldVideoPrompt:       "",
		outbound.SceneFieldVideoModel:        "",
		outbound.SceneFieldVideoTaskID:       "",
		outbound.SceneFieldLipsyncVideoURL:   "",
		outbound.SceneFieldLipsyncModel:      "",
		outbound.SceneFieldLipsyncJobID:      "",
		outbound.SceneFieldFinalVideoURL:     "",
	}
}

// failRun is the single failure surface: one atomic write moving the scene
// to FAILED with the causal reason, plus an ERROR log. Errors here are
// logged and swallowed so the original cause is what propagates. extra
// fields, when present, ride in the same write.
func (o *scenePipelineOrchestrator) failRun(ctx context.Context, scene *domain.Scene, step domain.PipelineStep, provider string, cause error, events chan<- domain.ProgressEvent, extra map[string]interface{}) {
	reason := cause.Error()
	fields := map[string]interface{}{
		outbound.SceneFieldStatus:        domain.SceneStatusFailed,
		outbound.SceneFieldFailureReason: reason,
		outbound.SceneFieldRetryCount:    scene.RetryCount + 1,
		outbound.SceneFieldLastAttemptAt: time.Now().UTC(),
	}
	for k, v := range extra {
		fields[k] = v
	}
	_, err := o.scenes.Update(ctx, scene.ID, fields)
	if err != nil {
		o.logger.ErrorWithFields(err, "failed to persist scene failure", map[string]interface{}{
			"scene_id": scene.ID, "step": string(step),
		})
	}
	o.appendLog(ctx, scene, step, domain.LogLevelError, reason, provider, 0, nil)
	o.logger.ErrorWithFields(cause, "scene generation failed", map[string]interface{}{
		"scene_id": scene.ID, "step": string(step),
	})
	o.emit(events, scene.ID, step, domain.ProgressFailed, reason, "")
}

func (o *scenePipelineOrchestrator) appendLog(ctx context.Context, scene *domain.Scene, step domain.PipelineStep, level domain.LogLevel, msg, provider string, durationMs int64, payload map[string]interface{}) {
	o.genLogs.Append(ctx, domain.GenerationLog{
		ID:         uuid.NewString(),
		SceneID:    scene.ID,
		ProjectID:  scene.ProjectID,
		Step:       step,
		Level:      level,
		Message:    msg,
		Provider:   provider,
		DurationMs: durationMs,
		Payload:    payload,
		CreatedAt:  time.Now().UTC(),
	})
}

// emit pushes a progress event without ever blocking the pipeline: a slow
// or disconnected stream consumer drops events, it does not stall the run.
func (o *scenePipelineOrchestrator) emit(events chan<- domain.ProgressEvent, sceneID string, step domain.PipelineStep, status, message, url string) {
	if events == nil {
		return
	}
	select {
	case events <- domain.ProgressEvent{SceneID: sceneID, Step: step, Status: status, Message: message, URL: url}:
	default:
	}
}

func (o *scenePipelineOrchestrator) resolveIdentityImage(ctx context.Context, refs *domain.SceneWithRefs) (*domain.Asset, error) {
	if refs.Headshot != nil && refs.Headshot.URL != "" {
		return refs.Headshot, nil
	}
	if o.cfg.DefaultHeadshotSettingKey == "" {
		return nil, nil
	}
	return o.settings.ResolveAssetSetting(ctx, o.cfg.DefaultHeadshotSettingKey)
}

func buildImagePrompt(scene *domain.Scene) string {
	parts := []string{"photorealistic portrait of the avatar"}
	if scene.Environment != "" {
		parts = append(parts, "in "+scene.Environment)
	}
	if scene.Wardrobe != "" {
		parts = append(parts, "wearing "+scene.Wardrobe)
	}
	if scene.Lighting != "" {
		parts = append(parts, scene.Lighting+" lighting")
	}
	if scene.Mood != "" {
		parts = append(parts, scene.Mood+" mood")
	}
	return strings.Join(parts, ", ")
}

func buildMotionPrompt(scene *domain.Scene) string {
	parts := []string{"the subject speaks naturally to camera"}
	if scene.Movement != "" {
		parts = append(parts, scene.Movement)
	}
	if scene.CameraStyle != "" {
		parts = append(parts, "camera: "+scene.CameraStyle)
	}
	return strings.Join(parts, ", ")
}

func extForContentType(contentType, fallback string) string {
	switch contentType {
	case "audio/mpeg":
		return "mp3"
	case "audio/wav":
		return "wav"
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "video/mp4":
		return "mp4"
	default:
		return fallback
	}
}
