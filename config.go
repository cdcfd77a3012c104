package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the environment-driven surface of the bot: which bucket to
// talk to and the default local paths for one-shot runs.
type Config struct {
	Region      string
	Bucket      string
	DownloadDir string
	UploadFile  string
	Key         string
}

func loadConfig() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	viper.SetDefault("AWS_REGION", "ap-south-1")
	viper.SetDefault("DOWNLOAD_DIR", "download")

	viper.AutomaticEnv()

	return &Config{
		Region:      viper.GetString("AWS_REGION"),
		Bucket:      viper.GetString("BUCKET_NAME"),
		DownloadDir: viper.GetString("DOWNLOAD_DIR"),
		UploadFile:  viper.GetString("UPLOAD_FILE"),
		Key:         viper.GetString("S3_KEY"),
	}
}
