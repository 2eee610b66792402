package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"tasklist-app/internal/config"
	"tasklist-app/internal/logger"
	"tasklist-app/internal/storage"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	commands *commands
}

func NewBot(token string, debug bool, store storage.Storage) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	api.Debug = debug
	logger.Info(context.Background(), "bot authorized", "username", api.Self.UserName)

	return &Bot{
		api:      api,
		commands: &commands{store: store},
	}, nil
}

func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates, err := b.api.GetUpdatesChan(u)
	if err != nil {
		return fmt.Errorf("get updates: %w", err)
	}

	logger.Info(context.Background(), "bot is listening for messages")

	for update := range updates {
		if update.Message == nil {
			continue
		}

		go b.handleMessage(update.Message)
	}
	return nil
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	ctx := context.Background()
	owner := senderName(msg)

	logger.Debug(ctx, "message received", "user", owner, "text", msg.Text)

	var reply string
	if msg.IsCommand() {
		reply = b.commands.execute(msg.Command(), msg.CommandArguments(), owner)
	} else if msg.Text != "" {
		// Обычный текст - это новая задача
		reply = b.commands.execute("add", msg.Text, owner)
	} else {
		return
	}

	b.sendMessage(msg.Chat.ID, reply)
}

func senderName(msg *tgbotapi.Message) string {
	if msg.From == nil {
		return "unknown"
	}
	if msg.From.UserName != "" {
		return msg.From.UserName
	}
	return msg.From.FirstName
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)

	if _, err := b.api.Send(msg); err != nil {
		logger.Error(context.Background(), err, "failed to send message", "chat", chatID)
	}
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "configuration file")
	flag.Parse()

	ctx := context.Background()
	cfg := config.MustLoad(configPath)
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	if cfg.Telegram.Token == "" {
		logger.Error(ctx, nil, "TELEGRAM_TOKEN is not set")
		os.Exit(1)
	}

	store, err := storage.New(storage.Options{
		Driver:     cfg.Storage.Driver,
		FilePath:   cfg.Storage.FilePath,
		SQLitePath: cfg.Storage.SQLitePath,
	})
	if err != nil {
		logger.Error(ctx, err, "failed to init storage")
		os.Exit(1)
	}
	defer store.Close()

	bot, err := NewBot(cfg.Telegram.Token, cfg.Telegram.Debug, store)
	if err != nil {
		logger.Error(ctx, err, "failed to create bot")
		os.Exit(1)
	}

	if err := bot.Start(); err != nil {
		logger.Error(ctx, err, "bot stopped")
		os.Exit(1)
	}
}
