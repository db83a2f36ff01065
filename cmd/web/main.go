package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/storyloom/storyloom/internal/ai"
	"github.com/storyloom/storyloom/internal/envstruct"
	"github.com/storyloom/storyloom/internal/logging"
	"github.com/storyloom/storyloom/internal/repositories"
	"github.com/storyloom/storyloom/sqlite"
)

type config struct {
	Addr         string `env:"STORYLOOM_ADDR" envDefault:"localhost:4000"`
	SQLiteURL    string `env:"STORYLOOM_SQLITE_URL" envDefault:"./storyloom.sqlite"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY" envDefault:""`
}

type application struct {
	logger   *slog.Logger
	stories  *repositories.StoryRepository
	aiClient ai.Client
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}))
	logger := slog.New(loggerHandler)

	// A missing .env is fine in production where the environment is real.
	_ = godotenv.Load()

	var cfg config
	if err := envstruct.Populate(&cfg, os.LookupEnv); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	dbs, err := sqlite.NewDB(cfg.SQLiteURL)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	logger.Info("connected to db")

	app := application{
		logger:   logger,
		stories:  repositories.NewStoryRepository(dbs, logger),
		aiClient: ai.NewClient(cfg.OpenAIAPIKey, logger),
	}

	logger.Info("starting server", slog.Any("addr", cfg.Addr))

	err = http.ListenAndServe(cfg.Addr, app.routes())
	logger.Error(err.Error())
	os.Exit(1)
}
