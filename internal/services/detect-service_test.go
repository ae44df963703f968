package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worrakit/vision_service/internal/domain"
	"github.com/worrakit/vision_service/internal/dto"
)

type fakeDetector struct {
	results []dto.DetectionResult
	err     error
	gotW    int
	gotH    int
}

func (f *fakeDetector) DetectObjects(ctx context.Context, data []byte, imgW, imgH int) ([]dto.DetectionResult, error) {
	f.gotW, f.gotH = imgW, imgH
	return f.results, f.err
}

type fakeAnswerer struct {
	answer string
	err    error
}

func (f *fakeAnswerer) Ask(ctx context.Context, question, imageURL string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type fakeUploader struct {
	uploads map[string][]byte
	err     error
}

func (f *fakeUploader) UploadBytes(ctx context.Context, folder, filename string, b []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	url := "https://cdn.test/" + folder + "/" + filename + ".jpg"
	f.uploads[url] = b
	return url, nil
}

type fakeDetectionRepo struct {
	created []*domain.Detection
	err     error
}

func (f *fakeDetectionRepo) CreateDetection(d *domain.Detection) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, d)
	return nil
}

func (f *fakeDetectionRepo) ListDetections(limit, offset int) ([]domain.Detection, error) {
	out := make([]domain.Detection, 0, len(f.created))
	for _, d := range f.created {
		out = append(out, *d)
	}
	return out, nil
}

func testImage(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestDetect_FullPipeline(t *testing.T) {
	detector := &fakeDetector{results: []dto.DetectionResult{
		{Class: "dog", Confidence: 0.91, BBoxXYXY: [4]float64{10, 10, 50, 50}},
	}}
	uploader := &fakeUploader{}
	repo := &fakeDetectionRepo{}
	svc := NewDetectService(detector, &fakeAnswerer{}, uploader, repo)

	res, err := svc.Detect(context.Background(), nil, testImage(t, 200, 100))
	require.NoError(t, err)

	require.Len(t, res.Detections, 1)
	assert.Equal(t, "dog", res.Detections[0].Class)
	assert.NotEmpty(t, res.OutputImage)
	assert.NotEmpty(t, res.AnnotatedImage)
	assert.NotEqual(t, res.OutputImage, res.AnnotatedImage)

	// the model sees the normalized dimensions
	assert.Equal(t, 200, detector.gotW)
	assert.Equal(t, 100, detector.gotH)

	// both images stored, one record persisted with the results as JSON
	assert.Len(t, uploader.uploads, 2)
	require.Len(t, repo.created, 1)
	var persisted []dto.DetectionResult
	require.NoError(t, json.Unmarshal([]byte(repo.created[0].Results), &persisted))
	assert.Equal(t, res.Detections, persisted)
}

func TestDetect_DetectorError(t *testing.T) {
	svc := NewDetectService(
		&fakeDetector{err: errors.New("quota exceeded")},
		&fakeAnswerer{},
		&fakeUploader{},
		&fakeDetectionRepo{},
	)

	_, err := svc.Detect(context.Background(), nil, testImage(t, 64, 64))
	require.ErrorContains(t, err, "detection failed")
}

func TestDetect_BadImage(t *testing.T) {
	svc := NewDetectService(&fakeDetector{}, &fakeAnswerer{}, &fakeUploader{}, &fakeDetectionRepo{})

	_, err := svc.Detect(context.Background(), nil, []byte("not an image"))
	require.ErrorContains(t, err, "normalize image failed")

	_, err = svc.Detect(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestDetect_UploadError(t *testing.T) {
	svc := NewDetectService(
		&fakeDetector{},
		&fakeAnswerer{},
		&fakeUploader{err: errors.New("cloud down")},
		&fakeDetectionRepo{},
	)

	_, err := svc.Detect(context.Background(), nil, testImage(t, 64, 64))
	require.ErrorContains(t, err, "upload output image failed")
}

func TestAsk_Success(t *testing.T) {
	svc := NewDetectService(&fakeDetector{}, &fakeAnswerer{answer: "a dog"}, &fakeUploader{}, &fakeDetectionRepo{})

	res, err := svc.Ask(context.Background(), dto.AskRequest{
		Question: "what is in the image?",
		ImageURL: "https://cdn.test/x.jpg",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.NotNil(t, res.Answer)
	assert.Equal(t, "a dog", *res.Answer)
}

func TestAsk_MissingInputs(t *testing.T) {
	svc := NewDetectService(&fakeDetector{}, &fakeAnswerer{}, &fakeUploader{}, &fakeDetectionRepo{})

	res, err := svc.Ask(context.Background(), dto.AskRequest{Question: "", ImageURL: ""})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "question and image_url are required", res.Message)
	assert.Nil(t, res.Answer)
}

func TestAsk_UpstreamError(t *testing.T) {
	svc := NewDetectService(&fakeDetector{}, &fakeAnswerer{err: errors.New("Invalid image URL")}, &fakeUploader{}, &fakeDetectionRepo{})

	res, err := svc.Ask(context.Background(), dto.AskRequest{
		Question: "what is this?",
		ImageURL: "https://cdn.test/missing.jpg",
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid image URL", res.Message)
}
