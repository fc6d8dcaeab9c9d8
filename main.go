package main

import "github.com/siteforge-ai/siteforge-cli/cmd"

func main() {
	cmd.Execute()
}
