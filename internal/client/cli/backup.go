package cli

import (
	"context"
	"fmt"
	"log"
	"os"
)

func (a *App) backup(ctx context.Context) {
	key, err := a.backupService.Export(ctx, a.vaultService)
	if err != nil {
		log.Printf("backup failed: %v", err)
		return
	}
	fmt.Printf("Backup uploaded. Storage key: %s\n", key)
}

func (a *App) restore(ctx context.Context) {
	key, err := GetSimpleText(a.reader, "Storage key: ", os.Stdout)
	if err != nil {
		log.Printf("restore failed: %v", err)
		return
	}

	body, err := a.backupService.Import(ctx, key)
	if err != nil {
		log.Printf("restore failed: %v", err)
		return
	}

	if err := a.vaultService.Adopt(ctx, body); err != nil {
		log.Printf("restore failed: %v", err)
		return
	}
	fmt.Println("Vault restored from backup.")
}
