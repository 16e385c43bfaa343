package main

import (
	"fmt"

	"github.com/fgeck/profsync/internal/models"
	"github.com/fgeck/profsync/internal/services/registry"
	"github.com/fgeck/profsync/internal/services/runner"
	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the registered categories and their resolved paths",
	Long:  `List every registered category with its resolved source root and item set, without touching any files.`,
	RunE:  listCategories,
}

func listCategories(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("Machine: %s\n", cfg.Env.MachineName)
	if cfg.Env.CloudDir != "" {
		fmt.Printf("Backup root: %s\n", runner.BackupDest(cfg.Env))
	} else {
		fmt.Println("Backup root: (cloud dir not configured)")
	}
	fmt.Println()

	for _, cat := range registry.All() {
		fmt.Printf("%s (%s)\n", cat.Name, cat.DisplayName)
		root := cat.Root(cfg.Env)
		if cat.Profiled {
			fmt.Printf("  root: %s (profile selected at run time)\n", root)
		} else {
			fmt.Printf("  root: %s\n", root)
		}
		for _, item := range cat.Items {
			kind := "file"
			if item.Kind == models.ItemDir {
				kind = "directory mirror"
			}
			fmt.Printf("  - %s (%s)\n", item.Name, kind)
		}
		fmt.Println()
	}

	return nil
}
