package main

import (
	"context"

	"github.com/Blackdeer1524/rcmock/cmd/rcmock/app"
)

func main() {
	app.MustExecute(context.Background())
}
