package main

import (
	"log"
	"net/http"
	"os"

	"presensi/app"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	srv, err := app.NewFromEnv()
	if err != nil {
		log.Fatal("startup: ", err)
	}
	defer srv.Close()

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Println("listening on", addr)
	log.Fatal(http.ListenAndServe(addr, srv.Handler))
}
