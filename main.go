package main

import (
	"log"

	"github.com/pgmcp/pgmcp/cmd/pgmcp"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	pgmcp.Execute()
}
