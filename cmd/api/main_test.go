package main

import (
	"net"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func TestServe_ListenFailureReturns(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	defer busy.Close()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	done := make(chan error, 1)
	go func() { done <- serve(app, busy.Addr().String(), make(chan os.Signal)) }()

	select {
	case err := <-done:
		if err == nil {
			t.Error("serve on a busy port returned nil")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve kept waiting for a signal after the listener failed")
	}
}
