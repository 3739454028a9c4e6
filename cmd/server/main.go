package main

import (
	"log"

	"go.uber.org/zap"
)

func main() {
	srv, err := NewServer()
	if err != nil {
		log.Fatalf("démarrage impossible: %v", err)
	}
	if err := srv.Run(); err != nil {
		srv.Logger.Fatal("arrêt du serveur", zap.Error(err))
	}
}
