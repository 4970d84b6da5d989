// Command inquiryd serves the contact page and the JSON submission
// endpoint and delivers accepted inquiries to the configured sinks.
package main

import (
	"context"
	"log"

	"github.com/dalemusser/inquiry/app"
	"github.com/dalemusser/inquiry/internal/app/bootstrap"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
