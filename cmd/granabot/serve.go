package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gustavohm/granabot/internal/engine"
	"github.com/gustavohm/granabot/internal/nlu"
	"github.com/gustavohm/granabot/internal/storage"
	"github.com/gustavohm/granabot/internal/telegram"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		Long: `Connect to Telegram and process messages until interrupted.

The bot needs a bot token (telegram.token), an inference API key
(inference.api_key) and, for voice notes, a transcription API key
(inference.transcribe_api_key).`,
		RunE: runServe,
	}

	cmd.Flags().String("token", "", "Telegram bot token (overrides telegram.token)")
	_ = viper.BindPFlag("telegram.token", cmd.Flags().Lookup("token"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	token := viper.GetString("telegram.token")
	if token == "" {
		return fmt.Errorf("no Telegram token configured; set telegram.token or GRANABOT_TELEGRAM_TOKEN")
	}

	dbPath, err := databasePath()
	if err != nil {
		return err
	}
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	nluCfg := nlu.Config{
		Provider:          viper.GetString("inference.provider"),
		APIKey:            viper.GetString("inference.api_key"),
		Model:             viper.GetString("inference.model"),
		TranscribeAPIKey:  viper.GetString("inference.transcribe_api_key"),
		TranscribeModel:   viper.GetString("inference.transcribe_model"),
		MaxTokens:         viper.GetInt("inference.max_tokens"),
		RequestsPerMinute: viper.GetInt("inference.requests_per_minute"),
	}
	if nluCfg.APIKey == "" {
		return fmt.Errorf("no inference API key configured; set inference.api_key or GRANABOT_INFERENCE_API_KEY")
	}

	client, err := nlu.NewClient(nluCfg)
	if err != nil {
		return fmt.Errorf("creating inference client: %w", err)
	}

	var transcriber nlu.Transcriber
	if nluCfg.TranscribeAPIKey != "" {
		if transcriber, err = nlu.NewTranscriber(nluCfg); err != nil {
			return fmt.Errorf("creating transcriber: %w", err)
		}
	} else {
		slog.Warn("no transcription API key configured, voice notes will be rejected")
	}

	gateway := nlu.NewGateway(client, transcriber, nluCfg.RequestsPerMinute)
	defer gateway.Close()

	bot, err := telegram.NewBot(
		telegram.Config{
			Token:       token,
			PollTimeout: viper.GetDuration("telegram.poll_timeout"),
		},
		func(t *telegram.Transport) *engine.Engine {
			return engine.New(store, t, gateway)
		},
	)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		slog.Info("stopping telegram bot")
		bot.Stop()
	}()

	slog.Info("granabot serving",
		"database", dbPath,
		"voice_enabled", transcriber != nil)
	bot.Start()

	// Give in-flight handlers a beat to finish logging before exit.
	time.Sleep(100 * time.Millisecond)
	return nil
}
