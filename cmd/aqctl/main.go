// Command aqctl клиент сервиса качества воздуха
package main

import (
	"os"

	"smartcity-air/cmd/aqctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
