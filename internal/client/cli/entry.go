package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
)

func (a *App) addEntry() {
	groupStr, err := GetSimpleText(a.reader, "Group UUID (empty for root)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	var group uuid.UUID
	if groupStr != "" {
		group, err = uuid.Parse(groupStr)
		if err != nil {
			log.Printf("invalid UUID: %v", err)
			return
		}
	}

	title, err := GetSimpleText(a.reader, "Entry title", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	fields, err := GetFields(a.reader, os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	e, err := a.vaultService.AddEntry(group, title, fields)
	if err != nil {
		log.Printf("could not add entry: %v", err)
		return
	}
	fmt.Printf("Added entry %s (%s)\n", e.Title, e.UUID())
}

func (a *App) editEntry() {
	idStr, err := GetSimpleText(a.reader, "Entry UUID to edit", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Printf("invalid UUID: %v", err)
		return
	}

	title, err := GetSimpleText(a.reader, "New title", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	fields, err := GetFields(a.reader, os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	if err := a.vaultService.UpdateEntry(id, title, fields); err != nil {
		log.Printf("could not update entry: %v", err)
	}
}

func (a *App) deleteEntry() {
	idStr, err := GetSimpleText(a.reader, "Entry UUID to delete", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Printf("invalid UUID: %v", err)
		return
	}
	if err := a.vaultService.DeleteEntry(id); err != nil {
		log.Printf("could not delete entry: %v", err)
	}
}

func (a *App) showEntry() {
	idStr, err := GetSimpleText(a.reader, "Entry UUID to show", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Printf("invalid UUID: %v", err)
		return
	}

	e := a.vaultService.Database().FindEntryByUUID(id)
	if e == nil {
		fmt.Println("not found")
		return
	}

	fmt.Println(e.Title)
	for name, value := range e.Fields {
		fmt.Printf("  %s: %s\n", name, value)
	}
}
