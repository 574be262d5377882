package cli

import (
	"context"
	"fmt"
	"log"
)

func (a *App) sync(ctx context.Context) {
	changes, err := a.vaultService.Sync(ctx)
	if err != nil {
		log.Printf("sync failed: %v", err)
		return
	}
	if len(changes) == 0 {
		fmt.Println("Already up to date.")
		return
	}
	for _, c := range changes {
		fmt.Println(c)
	}
}
