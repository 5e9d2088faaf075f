package main

import (
	"context"

	"ccr-registry-scraper/cmd/ccr-scraper/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
