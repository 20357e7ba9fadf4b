package main

import "github.com/chatcleaner/chat-cleaner/cmd/chat-cleaner/cmd"

func main() {
	cmd.Execute()
}
