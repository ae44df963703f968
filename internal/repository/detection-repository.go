package repository

import (
	"errors"
	"log"

	"github.com/worrakit/vision_service/internal/domain"
	"gorm.io/gorm"
)

type DetectionRepository interface {
	CreateDetection(d *domain.Detection) error
	ListDetections(limit, offset int) ([]domain.Detection, error)
}

type detectionRepository struct {
	db *gorm.DB
}

func NewDetectionRepository(db *gorm.DB) DetectionRepository {
	return &detectionRepository{db: db}
}

func (r *detectionRepository) CreateDetection(d *domain.Detection) error {
	if d == nil {
		return errors.New("nil detection")
	}

	if err := r.db.Create(d).Error; err != nil {
		log.Printf("create detection error: %v", err)
		return errors.New("failed to create detection")
	}
	return nil
}

func (r *detectionRepository) ListDetections(limit, offset int) ([]domain.Detection, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var out []domain.Detection
	if err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		log.Printf("list detections error: %v", err)
		return nil, errors.New("failed to list detections")
	}
	return out, nil
}
