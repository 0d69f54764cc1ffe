// keytool генерирует значения ENCRYPTION_KEY и ADMIN_TOKEN_HASH для .env
//
//	keytool -gen-key
//	keytool -hash-token <token>
package main

import (
	"flag"
	"fmt"
	"os"

	"tradekeys/pkg/crypto"
)

func main() {
	genKey := flag.Bool("gen-key", false, "print a new base64 ENCRYPTION_KEY")
	hashToken := flag.String("hash-token", "", "print bcrypt ADMIN_TOKEN_HASH for the given token")
	cost := flag.Int("cost", crypto.DefaultCost, "bcrypt cost for -hash-token")
	flag.Parse()

	switch {
	case *genKey:
		key, err := crypto.GenerateKeyBase64()
		if err != nil {
			fail(err)
		}
		fmt.Printf("ENCRYPTION_KEY=%s\n", key)
	case *hashToken != "":
		hash, err := crypto.HashTokenWithCost(*hashToken, *cost)
		if err != nil {
			fail(err)
		}
		// одинарные кавычки: в хеше есть '$'
		fmt.Printf("ADMIN_TOKEN_HASH='%s'\n", hash)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "keytool:", err)
	os.Exit(1)
}
