// Commande hashpassword : génère la valeur de ADMIN_PASSWORD_HASH.
//
//	go run ./cmd/hashpassword 'mot de passe'
package main

import (
	"fmt"
	"log"
	"os"

	"verdure_back_end/internal/utils"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatal("usage: hashpassword <mot de passe>")
	}
	hash, err := utils.HashPassword(os.Args[1])
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	fmt.Println(hash)
}
