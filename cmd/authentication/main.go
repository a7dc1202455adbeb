// This is a **mock authentication service**, designed to provide JWT tokens
// for the HRMS workflow service, simulating user authentication.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/gartstein/hrms/internal/hrms/auth"
)

const (
	defaultPort   = "8081"       // Default port for the authentication service
	defaultSecret = "jwt_secret" // Secret for signing JWT
)

// TokenResponse represents the response structure
type TokenResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// tokenHandler issues a token for ?user=<id>&role=<hr|manager|admin>.
// Both default to an HR user.
func tokenHandler(secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user")
		if userID == "" {
			userID = "12345"
		}
		role := auth.Role(r.URL.Query().Get("role"))
		if role == "" {
			role = auth.RoleHR
		}

		token, err := auth.GenerateToken(userID, role, secret)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(TokenResponse{Token: token, Role: string(role)}); err != nil {
			http.Error(w, "Failed to encode token", http.StatusInternalServerError)
		}
	}
}

func main() {
	port := flag.String("port", defaultPort, "listen port")
	flag.Parse()

	secret := os.Getenv("HRMS_JWT_SECRET")
	if secret == "" {
		secret = defaultSecret
	}
	http.HandleFunc("/token", tokenHandler(secret))

	log.Printf("Authentication service running on port %s", *port)
	log.Fatal(http.ListenAndServe(":"+*port, nil))
}
