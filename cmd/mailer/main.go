package main

import (
	"log"

	"github.com/worrakit/vision_service/config"
	"github.com/worrakit/vision_service/infra/queue"
	"github.com/worrakit/vision_service/internal/mail"
)

func main() {
	cfg := config.LoadConfig()

	log.Println("Mailer starting...")
	log.Printf("KafkaBroker=%s Topic=%s GroupID=%s\n",
		cfg.KafkaBroker,
		cfg.KafkaTopic,
		cfg.KafkaGroupID,
	)

	mailService := mail.NewMailService(
		cfg.GmailUser,
		cfg.GmailAppPassword,
		cfg.MailFrom,
		cfg.MailFromName,
		cfg.MailSubject,
	)

	handler := mail.NewMailHandler(mailService)

	consumer := queue.NewKafkaConsumer(
		cfg.KafkaBroker,
		cfg.KafkaTopic,
		cfg.KafkaGroupID,
		cfg.KafkaUsername,
		cfg.KafkaPassword,
		"Mailer",
		handler,
	)

	log.Println("Mailer listening for OTP events...")
	consumer.Listen()
}
