package main

import (
	"os"

	faqbotcmder "github.com/papercomputeco/faqbot/cmd/faqbot"
)

func main() {
	cmd := faqbotcmder.NewFaqbotCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
