package main

import "github.com/slackbridge/slackbridge/cmd"

func main() {
	cmd.Execute()
}
