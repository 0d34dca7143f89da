// Package orchestrator drives one summarization pipeline per task:
// metadata lookup, transcript acquisition through the provider chain,
// summarization and persistence, reporting progress along the way.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ytsum/config"
	"ytsum/errors"
	"ytsum/models"
	"ytsum/progress"
	"ytsum/providers"
	"ytsum/repository"
	"ytsum/services/anonymous"
	"ytsum/summarizer"
)

// Stage percentages reported over the lifetime of a run. The values only
// ever increase within one task.
const (
	stageInit        = 5
	stageConnect     = 10
	stageTranscript  = 25
	stageAnalyze     = 60
	stageGenerate    = 80
	stageSave        = 90
	stageDone        = 100
	transcriptSpan   = stageAnalyze - stageTranscript
	genericFailStage = "Something went wrong while processing this video. Please try again."
	transcriptFail   = "We couldn't retrieve this video's transcript. Please try another video."
)

// MetadataFetcher resolves a video's details before transcript work.
type MetadataFetcher interface {
	Fetch(ctx context.Context, videoID string) (models.VideoMetadata, error)
}

// TranscriptSource is the provider fallback chain.
type TranscriptSource interface {
	Run(ctx context.Context, video providers.VideoRef, observe providers.Observer) (providers.AttemptResult, error)
}

// Archiver mirrors finished summaries to object storage. Optional.
type Archiver interface {
	SaveSummary(ctx context.Context, summary *models.Summary) error
}

// URLValidator checks submissions and extracts video identifiers.
type URLValidator interface {
	ValidateURL(url string) error
	ExtractVideoID(url string) (string, error)
}

type Service struct {
	validator  URLValidator
	metadata   MetadataFetcher
	transcript TranscriptSource
	summarizer summarizer.Service
	summaries  repository.SummaryRepository
	anonymous  anonymous.Service
	progress   *progress.Store
	archiver   Archiver
	config     config.PipelineConfig
	logger     *logrus.Logger
}

func NewService(
	validator URLValidator,
	metadata MetadataFetcher,
	transcript TranscriptSource,
	summarizerSvc summarizer.Service,
	summaries repository.SummaryRepository,
	anonymousSvc anonymous.Service,
	store *progress.Store,
	archiver Archiver,
	cfg config.PipelineConfig,
) *Service {
	return &Service{
		validator:  validator,
		metadata:   metadata,
		transcript: transcript,
		summarizer: summarizerSvc,
		summaries:  summaries,
		anonymous:  anonymousSvc,
		progress:   store,
		archiver:   archiver,
		config:     cfg,
		logger:     logrus.StandardLogger(),
	}
}

// Start validates the request, enforces the anonymous limit, allocates a
// task id and kicks off the pipeline in the background. The returned id
// is immediately pollable; the first record reads as queued.
func (s *Service) Start(ctx context.Context, req models.SummarizeRequest, ip string) (string, error) {
	const op = "Orchestrator.Start"

	if err := s.validator.ValidateURL(req.URL); err != nil {
		return "", err
	}
	videoID, err := s.validator.ExtractVideoID(req.URL)
	if err != nil {
		return "", err
	}

	taskID := uuid.NewString()

	// Anonymous submissions spend their free use up front so a denied
	// request never starts a pipeline. The task id doubles as the
	// summary id, which is what a later claim re-owns.
	if req.UserID == "" && req.Fingerprint != "" {
		if err := s.anonymous.RecordUse(ctx, req.Fingerprint, ip, taskID); err != nil {
			return "", err
		}
	}

	s.progress.Put(models.ProgressRecord{
		TaskID:   taskID,
		Progress: 0,
		Stage:    "Queued",
		Status:   models.StatusQueued,
	})

	go s.process(taskID, videoID, req)

	return taskID, nil
}

// process runs detached from the request context; a client going away
// must not abort the pipeline it asked for.
func (s *Service) process(taskID, videoID string, req models.SummarizeRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ProcessTimeout)
	defer cancel()

	logger := s.logger.WithFields(logrus.Fields{
		"task_id":  taskID,
		"video_id": videoID,
	})
	started := time.Now()

	s.report(taskID, stageInit, "Initializing...")
	s.report(taskID, stageConnect, "Connecting to YouTube...")

	// Serve repeat submissions of the same video from the stored
	// summary instead of burning provider quota again.
	if existing, err := s.summaries.FindByVideoID(ctx, videoID); err == nil {
		copied := *existing
		copied.ID = taskID
		copied.UserID = req.UserID
		copied.CreatedAt = time.Now().UTC()
		if err := s.summaries.Save(ctx, &copied); err != nil {
			s.fail(taskID, stageConnect, err)
			return
		}
		logger.Info("Served summary from cache")
		s.complete(taskID)
		return
	}

	meta, err := s.metadata.Fetch(ctx, videoID)
	if err != nil {
		s.fail(taskID, stageConnect, err)
		return
	}

	s.report(taskID, stageTranscript, "Fetching video data and transcript...")

	result, err := s.transcript.Run(ctx, providers.VideoRef{VideoID: videoID, URL: req.URL}, func(attempt, total int, name string) {
		if attempt <= 1 || total <= 0 {
			return
		}
		pct := stageTranscript + (attempt-1)*transcriptSpan/total
		s.report(taskID, pct, fmt.Sprintf("Trying source %d of %d...", attempt, total))
	})
	if err != nil {
		if chainErr, ok := err.(*providers.ChainError); ok {
			logger.WithField("reasons", chainErr.Reasons()).Error("All transcript providers failed")
			s.fail(taskID, stageTranscript, errors.Internal("Orchestrator.process", chainErr, transcriptFail))
			return
		}
		s.fail(taskID, stageTranscript, err)
		return
	}

	s.report(taskID, stageAnalyze, "Analyzing content with AI...")

	summarized, err := s.summarizer.Summarize(ctx, result.Transcript, meta)
	if err != nil {
		s.fail(taskID, stageAnalyze, err)
		return
	}

	s.report(taskID, stageGenerate, "Generating your summary...")

	summary := &models.Summary{
		ID:              taskID,
		VideoID:         videoID,
		VideoURL:        req.URL,
		Title:           meta.Title,
		ChannelName:     meta.ChannelName,
		DurationSeconds: meta.DurationSeconds,
		ThumbnailURL:    meta.ThumbnailURL,
		Summary:         summarized.Summary,
		KeyPoints:       summarized.KeyPoints,
		UserID:          req.UserID,
		CreatedAt:       time.Now().UTC(),
	}

	s.report(taskID, stageSave, "Saving your summary...")

	if err := s.summaries.Save(ctx, summary); err != nil {
		s.fail(taskID, stageSave, err)
		return
	}

	if s.archiver != nil {
		go func() {
			archiveCtx, archiveCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer archiveCancel()
			if err := s.archiver.SaveSummary(archiveCtx, summary); err != nil {
				logger.WithError(err).Warn("Failed to archive summary")
			}
		}()
	}

	logger.WithFields(logrus.Fields{
		"provider": result.ProviderName,
		"duration": time.Since(started).String(),
	}).Info("Pipeline completed")

	s.complete(taskID)
}

func (s *Service) report(taskID string, pct int, stage string) {
	s.progress.Put(models.ProgressRecord{
		TaskID:   taskID,
		Progress: pct,
		Stage:    stage,
		Status:   models.StatusProcessing,
	})
}

func (s *Service) complete(taskID string) {
	s.progress.Put(models.ProgressRecord{
		TaskID:   taskID,
		Progress: stageDone,
		Stage:    "Summary ready!",
		Status:   models.StatusCompleted,
	})
}

// fail writes the terminal error record. Only AppError messages are
// user-safe; anything else is replaced with a generic stage so internal
// details never reach clients.
func (s *Service) fail(taskID string, pct int, err error) {
	s.logger.WithError(err).WithField("task_id", taskID).Error("Pipeline failed")

	stage := genericFailStage
	if appErr, ok := err.(*errors.AppError); ok && appErr.Message != "" {
		stage = appErr.Message
	}

	s.progress.Put(models.ProgressRecord{
		TaskID:   taskID,
		Progress: pct,
		Stage:    stage,
		Status:   models.StatusError,
	})
}
