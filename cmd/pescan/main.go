package main

import (
	"os"

	"pescan/internal/logging"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger := logging.NewLogger(logging.Config{
			Format: logging.Format(flagLogFormat),
			Level:  logging.ErrorLevel,
		})
		logger.Error("scan failed", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}
}
