package cli

import (
	"context"
	"fmt"
	"log"
	"os"
)

func (a *App) register(ctx context.Context) {
	username, err := GetSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	if err := a.authService.Register(ctx, username, password); err != nil {
		log.Printf("registration failed: %v", err)
		return
	}
	fmt.Println("Registered. Log in with 'login'.")
}

func (a *App) login(ctx context.Context) {
	username, err := GetSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	if err := a.authService.Login(ctx, username, password); err != nil {
		log.Printf("login failed: %v", err)
		return
	}
	a.userName = username
	fmt.Println("Logged in.")
}

func (a *App) logout(ctx context.Context) {
	if err := a.authService.Logout(ctx); err != nil {
		log.Printf("logout failed: %v", err)
		return
	}
	a.userName = ""
	fmt.Println("Logged out.")
}
