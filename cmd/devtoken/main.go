// Command devtoken prints an admin bearer token for AUTH_MODE=jwt, used against
// the Firestore emulator in local development.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	authdomain "studio-admin-backend/internal/auth/domain"
	authUsecase "studio-admin-backend/internal/auth/usecase"
	"studio-admin-backend/pkg/config"
)

func main() {
	uid := flag.String("uid", "dev-admin", "user id (token subject)")
	email := flag.String("email", "admin@localhost", "user email")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	admin := flag.Bool("admin", true, "grant the admin claim")
	flag.Parse()

	cfg := config.Load()
	token, err := authUsecase.NewJWTVerifier(cfg.JWTSecret).Issue(&authdomain.User{
		ID:    *uid,
		Email: *email,
		Admin: *admin,
	}, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to sign token:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
