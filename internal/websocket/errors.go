package websocket

import "errors"

var (
	ErrClientQueueFull = errors.New("file d'envoi du client pleine")
	ErrClientClosed    = errors.New("file d'envoi du client fermée")
	ErrInvalidMessage  = errors.New("format de message invalide")
)
