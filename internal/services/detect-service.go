package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // normalized uploads are always JPEG

	"github.com/google/uuid"
	"github.com/worrakit/vision_service/internal/domain"
	"github.com/worrakit/vision_service/internal/dto"
	"github.com/worrakit/vision_service/internal/interfaces"
	"github.com/worrakit/vision_service/internal/repository"
	"github.com/worrakit/vision_service/pkg/utils"
)

type ObjectDetector interface {
	DetectObjects(ctx context.Context, data []byte, imgW, imgH int) ([]dto.DetectionResult, error)
}

type QuestionAnswerer interface {
	Ask(ctx context.Context, question, imageURL string) (string, error)
}

type DetectService interface {
	Detect(ctx context.Context, userID *uint, data []byte) (*dto.DetectResponse, error)
	Ask(ctx context.Context, input dto.AskRequest) (*dto.AskResponse, error)
	ListDetections(limit, offset int) ([]domain.Detection, error)
}

type detectService struct {
	detector ObjectDetector
	answerer QuestionAnswerer
	uploader interfaces.Uploader
	repo     repository.DetectionRepository
}

func NewDetectService(
	detector ObjectDetector,
	answerer QuestionAnswerer,
	uploader interfaces.Uploader,
	repo repository.DetectionRepository,
) DetectService {
	return &detectService{
		detector: detector,
		answerer: answerer,
		uploader: uploader,
		repo:     repo,
	}
}

// Detect normalizes the upload, runs the pretrained model, draws the boxes
// and stores both images plus a detection record.
func (s *detectService) Detect(ctx context.Context, userID *uint, data []byte) (*dto.DetectResponse, error) {
	const (
		maxWidth   = 1200
		jpgQuality = 85
	)

	if s.detector == nil {
		return nil, errors.New("detector is not configured")
	}
	if s.uploader == nil {
		return nil, errors.New("uploader is not configured")
	}
	if len(data) == 0 {
		return nil, errors.New("image is required")
	}

	norm, err := utils.NormalizeToJPG(data, maxWidth, jpgQuality)
	if err != nil {
		return nil, fmt.Errorf("normalize image failed: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(norm))
	if err != nil {
		return nil, fmt.Errorf("decode image failed: %w", err)
	}

	detections, err := s.detector.DetectObjects(ctx, norm, cfg.Width, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}

	boxes := make([]utils.Box, 0, len(detections))
	for _, d := range detections {
		boxes = append(boxes, utils.Box{
			Label:      d.Class,
			Confidence: d.Confidence,
			XYXY:       d.BBoxXYXY,
		})
	}

	annotated, err := utils.AnnotateJPG(norm, boxes, jpgQuality)
	if err != nil {
		return nil, fmt.Errorf("annotate image failed: %w", err)
	}

	id := uuid.NewString()
	outputURL, err := s.uploader.UploadBytes(ctx, "detect/output", id, norm)
	if err != nil {
		return nil, fmt.Errorf("upload output image failed: %w", err)
	}
	annotatedURL, err := s.uploader.UploadBytes(ctx, "detect/annotated", id+"_annotate", annotated)
	if err != nil {
		return nil, fmt.Errorf("upload annotated image failed: %w", err)
	}

	results, err := json.Marshal(detections)
	if err != nil {
		return nil, err
	}

	record := &domain.Detection{
		UserID:       userID,
		ImageURL:     outputURL,
		AnnotatedURL: annotatedURL,
		Results:      string(results),
	}
	if err := s.repo.CreateDetection(record); err != nil {
		return nil, err
	}

	return &dto.DetectResponse{
		Detections:     detections,
		OutputImage:    outputURL,
		AnnotatedImage: annotatedURL,
	}, nil
}

func (s *detectService) Ask(ctx context.Context, input dto.AskRequest) (*dto.AskResponse, error) {
	if input.Question == "" || input.ImageURL == "" {
		return &dto.AskResponse{
			Success: false,
			Message: "question and image_url are required",
		}, nil
	}

	if s.answerer == nil {
		return nil, errors.New("answerer is not configured")
	}

	answer, err := s.answerer.Ask(ctx, input.Question, input.ImageURL)
	if err != nil {
		return &dto.AskResponse{
			Success: false,
			Message: err.Error(),
		}, nil
	}

	return &dto.AskResponse{
		Success: true,
		Answer:  &answer,
	}, nil
}

func (s *detectService) ListDetections(limit, offset int) ([]domain.Detection, error) {
	return s.repo.ListDetections(limit, offset)
}
