package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/frontandrew/fleettrack/internal/infrastructure/mail"
	"github.com/frontandrew/fleettrack/internal/pkg/config"
)

func main() {
	fmt.Println("=========================================")
	fmt.Println("SMTP Client Test")
	fmt.Println("=========================================")
	fmt.Println()

	// Создаем SMTP клиент (по умолчанию MailHog на localhost:1025)
	cfg := &config.SMTPConfig{
		Host:       getEnv("SMTP_HOST", "localhost"),
		Port:       getIntEnv("SMTP_PORT", 1025),
		Username:   getEnv("SMTP_USERNAME", ""),
		Password:   getEnv("SMTP_PASSWORD", ""),
		Sender:     getEnv("SMTP_SENDER", "fleettrack@example.com"),
		SenderName: getEnv("SMTP_SENDER_NAME", "FleetTrack"),
	}

	client, err := mail.NewSMTPClient(cfg)
	if err != nil {
		fmt.Printf("❌ Failed to create SMTP client: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✅ SMTP client created")
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Test 1: подключение к серверу
	fmt.Println("Test 1: Health check")
	if err := client.Health(ctx); err != nil {
		fmt.Printf("❌ Health check failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ SMTP server reachable at %s:%d\n", cfg.Host, cfg.Port)
	fmt.Println()

	// Test 2: отправка тестового письма
	fmt.Println("Test 2: Send test mail")
	recipient := getEnv("SMTP_TEST_RECIPIENT", "disponent@example.com")
	body := "Dies ist eine Testnachricht von FleetTrack.\nWenn du sie liest, funktioniert der Mailversand."

	if err := client.Send(ctx, recipient, "FleetTrack SMTP-Test", body); err != nil {
		fmt.Printf("❌ Send failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Test mail sent to %s\n", recipient)
	fmt.Println()

	fmt.Println("=========================================")
	fmt.Println("✅ All SMTP client tests passed!")
	fmt.Println("=========================================")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
