package main

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"

	"github.com/lehigh-university-libraries/boxocr/cmd"
	"github.com/lehigh-university-libraries/boxocr/internal/utils"
)

func main() {
	// provider keys usually live in .env, but it is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		utils.ExitOnError("Error loading .env file", err)
	}

	if err := fang.Execute(context.Background(), cmd.RootCmd); err != nil {
		os.Exit(1)
	}
}
