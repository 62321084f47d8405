package utils

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"order-matcher/internal/config"
)

var Logger = logrus.New()

func init() {
	// Logger settings
	Logger.SetOutput(os.Stdout)
	Logger.SetFormatter(&logrus.JSONFormatter{})
	Logger.SetLevel(logrus.InfoLevel)
}

// Configure applies the logging section of the config. When a file is set,
// output goes to stdout and to a rotated log file.
func Configure(cfg config.Logging) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	Logger.SetLevel(level)

	if cfg.File == "" {
		Logger.SetOutput(os.Stdout)
		return nil
	}
	Logger.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}))
	return nil
}

// LogOrderResult logs the outcome of an order request
func LogOrderResult(orderID uint64, result string) {
	Logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"result":   result,
	}).Info("Order matching result")
}

// LogError logs errors
func LogError(err error) {
	Logger.WithFields(logrus.Fields{
		"error": err.Error(),
	}).Error("Error occurred")
}
