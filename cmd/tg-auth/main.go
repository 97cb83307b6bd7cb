package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mdp/qrterminal/v3"

	"github.com/telibelly/telibelly/internal/config"
	"github.com/telibelly/telibelly/internal/database"
	"github.com/telibelly/telibelly/internal/logger"
	"github.com/telibelly/telibelly/internal/telegram"
)

func main() {
	fmt.Println("=== telegram auth tool ===")
	fmt.Println("log in by scanning a qr code with the telegram mobile app")
	fmt.Println("(settings -> devices -> link desktop device)")
	fmt.Println()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	if cfg.TGApiID == 0 || cfg.TGApiHash == "" {
		fmt.Println("error: TG_API_ID and TG_API_HASH are required")
		fmt.Println("get them from https://my.telegram.org and put them in your .env file")
		os.Exit(1)
	}

	if err := logger.Init("warn", ""); err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		fmt.Printf("error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	manager := telegram.NewManager(cfg, db.GORM)

	go func() {
		<-sigChan
		fmt.Println("\ncanceled")
		manager.CancelQR()
		cancel()
	}()

	err = manager.StartQR(ctx, func(url string) {
		fmt.Println("\nscan this qr code:")
		fmt.Println()
		qrterminal.GenerateHalfBlock(url, qrterminal.L, os.Stdout)
		fmt.Println()
		fmt.Println("waiting for confirmation...")
	})
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	defer manager.Stop()

	fmt.Println("\n✓ authentication successful!")
	fmt.Println("the session is saved in the database; the server will pick it up on start")

	client := manager.GetClient()
	if client == nil {
		return
	}
	if client.Self != nil {
		fmt.Printf("logged in as: @%s\n", client.Self.Username)
	}

	sessionString, err := client.ExportStringSession()
	if err != nil {
		fmt.Printf("could not export session string: %v\n", err)
		return
	}

	fmt.Println("\nyour session string (optional alternative to the database session):")
	fmt.Println("---")
	fmt.Println(sessionString)
	fmt.Println("---")
	fmt.Println("\nadd this to your .env file as TG_SESSION_STRING")
	fmt.Println("\n⚠️  keep this secret! it provides full access to your telegram account")
}
