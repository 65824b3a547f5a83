package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// Quick utility to generate a bcrypt hash for manually resetting an account
// password, along with the update to run against the users collection
// Usage: go run scripts/fix_user_password.go <email> <password>
func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run scripts/fix_user_password.go <email> <password>")
		fmt.Println("Example: go run scripts/fix_user_password.go ayesha.khan@nust.edu.pk 0i2rinbcp12yc31h")
		os.Exit(1)
	}

	email := os.Args[1]
	password := os.Args[2]

	// Generate bcrypt hash
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("Error generating hash: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Bcrypt Hash: %s\n", string(hashedPassword))
	fmt.Printf("\nTo update in MongoDB, run:\n")
	fmt.Printf("db.users.updateOne(\n")
	fmt.Printf("  {\"user.email\": %q},\n", email)
	fmt.Printf("  {$set: {\"user.password\": %q}}\n", string(hashedPassword))
	fmt.Printf(")\n")
}
