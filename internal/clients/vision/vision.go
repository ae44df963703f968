// Package vision delegates object detection to the Cloud Vision
// pretrained model.
package vision

import (
	"bytes"
	"context"
	"errors"
	"math"

	visionai "cloud.google.com/go/vision/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/worrakit/vision_service/internal/dto"
	"google.golang.org/api/option"
)

type Client struct {
	annotator *visionai.ImageAnnotatorClient
}

func New(ctx context.Context, credentialsFile string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	c, err := visionai.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{annotator: c}, nil
}

func (c *Client) Close() error {
	return c.annotator.Close()
}

// DetectObjects runs object localization on the given JPEG bytes and maps the
// normalized polygons back to pixel xyxy boxes for imgW x imgH.
func (c *Client) DetectObjects(ctx context.Context, data []byte, imgW, imgH int) ([]dto.DetectionResult, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	if imgW <= 0 || imgH <= 0 {
		return nil, errors.New("invalid image dimensions")
	}

	img, err := visionai.NewImageFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	anns, err := c.annotator.LocalizeObjects(ctx, img, nil)
	if err != nil {
		return nil, err
	}

	out := make([]dto.DetectionResult, 0, len(anns))
	for _, ann := range anns {
		box, ok := pixelBox(ann.BoundingPoly, imgW, imgH)
		if !ok {
			continue
		}
		out = append(out, dto.DetectionResult{
			Class:      ann.Name,
			Confidence: round4(float64(ann.Score)),
			BBoxXYXY:   box,
		})
	}
	return out, nil
}

func pixelBox(poly *visionpb.BoundingPoly, imgW, imgH int) ([4]float64, bool) {
	if poly == nil || len(poly.NormalizedVertices) == 0 {
		return [4]float64{}, false
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, v := range poly.NormalizedVertices {
		x := float64(v.X) * float64(imgW)
		y := float64(v.Y) * float64(imgH)
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}
	return [4]float64{minX, minY, maxX, maxY}, true
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
