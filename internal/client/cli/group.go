package cli

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/vaultmerge/vaultmerge/internal/vault"
)

func (a *App) addGroup() {
	parentStr, err := GetSimpleText(a.reader, "Parent group UUID (empty for root)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	var parent uuid.UUID
	if parentStr != "" {
		parent, err = uuid.Parse(parentStr)
		if err != nil {
			log.Printf("invalid UUID: %v", err)
			return
		}
	}

	name, err := GetSimpleText(a.reader, "Group name", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	g, err := a.vaultService.AddGroup(parent, name)
	if err != nil {
		log.Printf("could not add group: %v", err)
		return
	}
	fmt.Printf("Added group %s (%s)\n", g.Name, g.UUID())
}

func (a *App) deleteGroup() {
	idStr, err := GetSimpleText(a.reader, "Group UUID to delete", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Printf("invalid UUID: %v", err)
		return
	}
	if err := a.vaultService.DeleteGroup(id); err != nil {
		log.Printf("could not delete group: %v", err)
	}
}

func (a *App) listGroups() {
	printGroup(a.vaultService.Database().RootGroup(), 0)
}

func printGroup(g *vault.Group, depth int) {
	fmt.Printf("%s%s (%s)\n", strings.Repeat("  ", depth), g.Name, g.UUID())
	for _, e := range g.Entries() {
		fmt.Printf("%s- %s (%s)\n", strings.Repeat("  ", depth+1), e.Title, e.UUID())
	}
	for _, c := range g.Children() {
		printGroup(c, depth+1)
	}
}
