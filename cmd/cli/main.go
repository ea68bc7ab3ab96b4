package main

import (
	"fmt"
	"os"

	"github.com/twxlab/twx/cmd/cli/auth"
	"github.com/twxlab/twx/cmd/cli/elements"
	"github.com/twxlab/twx/cmd/cli/root"
	"github.com/twxlab/twx/cmd/cli/transfers"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	elements.InitElements(rootCmd)
	transfers.InitTransfers(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
