package seed

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/storyloom/collab/internal/store"
)

// CatalogSeeder accepts catalog records without overwriting existing ones.
type CatalogSeeder interface {
	SeedCatalog(c store.Catalog) error
}

// LoadFromFile reads a catalog from a JSON file and seeds the store.
// Returns nil if path is empty (seeding disabled).
func LoadFromFile(path string, s CatalogSeeder) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading seed file %s: %w", path, err)
	}

	var c store.Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	for id, b := range c.Books {
		if b.OwnerID == "" {
			return fmt.Errorf("seed file %s: book %s has no owner", path, id)
		}
		b.ID = id
		c.Books[id] = b
	}
	for id, a := range c.Albums {
		a.ID = id
		c.Albums[id] = a
	}
	for id, i := range c.Identities {
		i.UID = id
		c.Identities[id] = i
	}

	log.WithFields(log.Fields{
		"books":      len(c.Books),
		"albums":     len(c.Albums),
		"identities": len(c.Identities),
	}).Info("seeding catalog from file")

	return s.SeedCatalog(c)
}
