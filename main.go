package main

import "whereat-backend/cmd"

func main() {
	cmd.Run()
}
