package main

import (
	"fmt"
	"log"

	"github.com/hugh/go-storefront/pkg/crypto"
)

func main() {
	identity, recipient, err := crypto.GenerateKey()
	if err != nil {
		log.Fatalf("Failed to generate key: %v", err)
	}

	fmt.Printf("ENCRYPTION_KEY=%s\n", identity)
	fmt.Printf("# public key: %s\n", recipient)
	fmt.Println("\nSet the same ENCRYPTION_KEY for the server and the worker.")
}
