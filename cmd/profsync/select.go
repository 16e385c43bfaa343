package main

import (
	"github.com/fgeck/profsync/internal/models"
	"github.com/fgeck/profsync/internal/services/registry"
	"github.com/spf13/cobra"
)

// categoryFlags holds the per-category boolean selectors shared by the
// backup and restore commands.
type categoryFlags struct {
	chrome    bool
	edge      bool
	firefox   bool
	favorites bool
	outlook   bool
	all       bool
}

func (f *categoryFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.chrome, registry.Chrome, false, "include Google Chrome")
	cmd.Flags().BoolVar(&f.edge, registry.Edge, false, "include Microsoft Edge")
	cmd.Flags().BoolVar(&f.firefox, registry.Firefox, false, "include Mozilla Firefox")
	cmd.Flags().BoolVar(&f.favorites, registry.Favorites, false, "include Internet Explorer Favorites")
	cmd.Flags().BoolVar(&f.outlook, registry.Outlook, false, "include Microsoft Outlook")
	cmd.Flags().BoolVarP(&f.all, "all", "a", false, "include every category")
}

// selected returns the chosen categories in registry order, empty when no
// selector was given.
func (f *categoryFlags) selected() []models.Category {
	if f.all {
		return registry.All()
	}

	chosen := map[string]bool{
		registry.Chrome:    f.chrome,
		registry.Edge:      f.edge,
		registry.Firefox:   f.firefox,
		registry.Favorites: f.favorites,
		registry.Outlook:   f.outlook,
	}

	var out []models.Category
	for _, cat := range registry.All() {
		if chosen[cat.Name] {
			out = append(out, cat)
		}
	}
	return out
}
