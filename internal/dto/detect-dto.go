package dto

type DetectionResult struct {
	Class      string     `json:"class"`
	Confidence float64    `json:"confidence"`
	BBoxXYXY   [4]float64 `json:"bbox_xyxy"`
}

type DetectResponse struct {
	Detections     []DetectionResult `json:"detections"`
	OutputImage    string            `json:"output_image"`
	AnnotatedImage string            `json:"annotated_image"`
}

type AskRequest struct {
	Question string `json:"question"`
	ImageURL string `json:"image_url"`
}

type AskResponse struct {
	Success bool    `json:"success"`
	Answer  *string `json:"answer"`
	Message string  `json:"message,omitempty"`
}
