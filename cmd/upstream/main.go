package main

// Toy upstream backend for local runs: echoes whatever it receives and tags
// the response with the serving address.
import (
	"io"
	"log"
	"net/http"
	"os"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "9001"
	}
	addr := ":" + port

	http.HandleFunc("/process", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		w.Header().Set("X-Served-By", addr)
		w.Write(body)
	})

	log.Printf("upstream listening on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
