// Command genkey prints fresh random secrets for the .env file: one for JWT
// signing, one for the admin dashboard key.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
)

func main() {
	const keySize = 32

	fmt.Println("JWT_SECRET_KEY=" + randomHex(keySize))
	fmt.Println("ADMIN_SECRET_KEY=" + randomHex(keySize))
}

func randomHex(n int) string {
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		log.Fatalf("Failed to generate random key: %v", err)
	}
	return hex.EncodeToString(raw)
}
