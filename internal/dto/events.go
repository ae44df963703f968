package dto

type OTPEmailEvent struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Code   string `json:"code"`
}
