package main

import (
	"os"

	marqueecmder "github.com/marqueeco/marquee/cmd/marquee"
)

func main() {
	cmd := marqueecmder.NewMarqueeCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
