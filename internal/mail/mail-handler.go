package mail

import (
	"encoding/json"
	"log"

	"github.com/worrakit/vision_service/internal/dto"
)

type MailHandler struct {
	MailService *MailService
}

func NewMailHandler(ms *MailService) *MailHandler {
	return &MailHandler{MailService: ms}
}

func (h *MailHandler) HandleMessage(message string) error {
	var event dto.OTPEmailEvent

	if err := json.Unmarshal([]byte(message), &event); err != nil {
		log.Printf("invalid event payload: %s\n", message)
		return err
	}

	log.Printf("OTP email event received: user_id=%d email=%s",
		event.UserID, event.Email)

	err := h.MailService.SendOTPEmail(event.Email, event.Code)
	log.Println("[MAIL] send finished, err =", err)
	return err
}
