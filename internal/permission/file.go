package permission

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
)

// defaultsFile is the on-disk shape of operator-tuned role defaults:
// role name to permission key to value. Keys absent from the file keep
// their builtin defaults.
type defaultsFile struct {
	Roles map[string]map[string]bool `json:"roles"`
}

// LoadDefaultsFile reads role default overrides from a JSON file and applies
// them to the resolver. A missing file is not an error; the builtin defaults
// stay in effect.
func (r *Resolver) LoadDefaultsFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading permissions file: %w", err)
	}

	var file defaultsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("%w: parsing %s: %v", domain.ErrConfigCorrupt, path, err)
	}

	defaults := make(map[domain.RoleLevel]map[domain.PermissionKey]bool, len(file.Roles))
	for name, perms := range file.Roles {
		switch name {
		case "player", "operator", "admin":
		default:
			return fmt.Errorf("%w: unknown role %q in %s", domain.ErrConfigCorrupt, name, path)
		}
		role := domain.ParseRoleLevel(name)
		table := make(map[domain.PermissionKey]bool, len(perms))
		for key, value := range perms {
			table[domain.PermissionKey(key)] = value
		}
		defaults[role] = table
	}

	if err := r.ReloadDefaults(defaults); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrConfigCorrupt, path, err)
	}
	return nil
}
