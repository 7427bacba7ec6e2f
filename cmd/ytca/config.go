package main

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all application configuration, read from the environment with
// optional .env support.
type Config struct {
	InputDir     string `env:"YTCA_INPUT_DIR" env-default:"input_data"`
	ProcessedDir string `env:"YTCA_PROCESSED_DIR" env-default:"processed_data"`
	LogLevel     string `env:"YTCA_LOG_LEVEL" env-default:"info"`
	PrettyStore  bool   `env:"YTCA_PRETTY_STORE" env-default:"true"`

	CheckpointEvery  int `env:"YTCA_CHECKPOINT_INTERVAL" env-default:"10"`
	CommentsPerVideo int `env:"YTCA_COMMENTS_PER_VIDEO" env-default:"2000"`

	HF HFConfig
}

// HFConfig configures the inference endpoint and the four stage models.
type HFConfig struct {
	BaseURL string `env:"HF_API_URL" env-default:"https://api-inference.huggingface.co"`
	Token   string `env:"HF_API_TOKEN"`

	SourceEmotionModel string `env:"YTCA_SOURCE_EMOTION_MODEL" env-default:"HooshvareLab/bert-fa-base-uncased-clf-persiannews"`
	TranslationModel   string `env:"YTCA_TRANSLATION_MODEL" env-default:"persiannlp/mt5-base-parsinlu-opus-translation"`
	TargetEmotionModel string `env:"YTCA_TARGET_EMOTION_MODEL" env-default:"j-hartmann/emotion-english-distilroberta-base"`
	IronyModel         string `env:"YTCA_IRONY_MODEL" env-default:"cardiffnlp/twitter-roberta-base-irony"`
}

// LoadConfig loads .env if present, then reads the environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if cfg.CheckpointEvery <= 0 {
		return Config{}, fmt.Errorf("YTCA_CHECKPOINT_INTERVAL must be > 0")
	}
	return cfg, nil
}
