package main

import (
	"github.com/Laisky/envo-blog/cmd"
)

func main() {
	cmd.Execute()
}
