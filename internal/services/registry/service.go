// Package registry holds the static table of backup categories.
package registry

import (
	"fmt"
	"path/filepath"

	"github.com/fgeck/profsync/internal/models"
)

// Category names. The set is fixed; commands select among these.
const (
	Chrome    = "chrome"
	Edge      = "edge"
	Firefox   = "firefox"
	Favorites = "favorites"
	Outlook   = "outlook"
)

// chromiumItems are the profile artifacts shared by Chromium-based browsers.
var chromiumItems = []models.ItemSpec{
	{Name: "Bookmarks", Kind: models.ItemFile},
	{Name: "Preferences", Kind: models.ItemFile},
	{Name: "Login Data", Kind: models.ItemFile},
	{Name: "Web Data", Kind: models.ItemFile},
	{Name: "Favicons", Kind: models.ItemFile},
}

var categories = []models.Category{
	{
		Name:        Chrome,
		DisplayName: "Google Chrome",
		Items:       chromiumItems,
		Root: func(env models.Env) string {
			return filepath.Join(env.LocalAppData, "Google", "Chrome", "User Data", "Default")
		},
	},
	{
		Name:        Edge,
		DisplayName: "Microsoft Edge",
		Items:       chromiumItems,
		Root: func(env models.Env) string {
			return filepath.Join(env.LocalAppData, "Microsoft", "Edge", "User Data", "Default")
		},
	},
	{
		Name:        Firefox,
		DisplayName: "Mozilla Firefox",
		Items: []models.ItemSpec{
			{Name: "places.sqlite", Kind: models.ItemFile},
			{Name: "prefs.js", Kind: models.ItemFile},
			{Name: "key4.db", Kind: models.ItemFile},
			{Name: "logins.json", Kind: models.ItemFile},
			{Name: "favicons.sqlite", Kind: models.ItemFile},
			{Name: "addonStartup.json.lz4", Kind: models.ItemFile},
		},
		// Root is the Profiles parent; the concrete profile directory is
		// chosen by the profiles service at run time.
		Root: func(env models.Env) string {
			return filepath.Join(env.RoamingAppData, "Mozilla", "Firefox", "Profiles")
		},
		Profiled: true,
	},
	{
		Name:        Favorites,
		DisplayName: "Internet Explorer Favorites",
		Items: []models.ItemSpec{
			{Name: "Favorites", Kind: models.ItemDir},
		},
		Root: func(env models.Env) string {
			return env.Home
		},
	},
	{
		Name:        Outlook,
		DisplayName: "Microsoft Outlook",
		Items: []models.ItemSpec{
			{Name: "Templates", Kind: models.ItemDir},
			{Name: "Rules", Kind: models.ItemDir},
			{Name: "RoamCache", Kind: models.ItemDir},
		},
		Root: func(env models.Env) string {
			return filepath.Join(env.RoamingAppData, "Microsoft", "Outlook")
		},
	},
}

// All returns every registered category in registration order.
func All() []models.Category {
	out := make([]models.Category, len(categories))
	copy(out, categories)
	return out
}

// Names returns the registered category names in registration order.
func Names() []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	return names
}

// Lookup returns the category with the given name. The category set is fixed
// at compile time, so an unknown name is a programming error.
func Lookup(name string) models.Category {
	for _, c := range categories {
		if c.Name == name {
			return c
		}
	}
	panic(fmt.Sprintf("registry: unknown category %q", name))
}
