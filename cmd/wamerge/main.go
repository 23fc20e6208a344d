package main

import "github.com/williamdwatson/whatsapp-export-viewer/internal/cmd"

func main() {
	cmd.Execute()
}
