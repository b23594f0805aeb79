package main

import (
	"context"
	"os"

	"github.com/wonny/quotecatalog/internal/cli"
)

const version = "1.0.0"

func main() {
	if err := cli.Execute(context.Background(), version); err != nil {
		os.Exit(1)
	}
}
