package registry

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// User is one collaborator account from users.yaml.
//
//	alice:
//	  password_hash: $2a$10$...
//	  admin: false
//	  access:
//	    Homo_sapiens: [GRCh38, T2T-CHM13]
//	    Apis_mellifera: []        # organism-wide grant
type User struct {
	Name         string              `yaml:"-"`
	PasswordHash string              `yaml:"password_hash"`
	Admin        bool                `yaml:"admin"`
	Access       map[string][]string `yaml:"access"`
}

// CheckPassword verifies a cleartext password against the stored bcrypt hash.
func (u User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// HasGrant reports whether the user's grant list covers the assembly. An
// organism entry with an empty assembly list is an organism-wide grant.
func (u User) HasGrant(organism, assembly string) bool {
	assemblies, ok := u.Access[organism]
	if !ok {
		return false
	}
	if len(assemblies) == 0 {
		return true
	}
	for _, a := range assemblies {
		if a == assembly {
			return true
		}
	}
	return false
}

// HasOrganismGrant reports whether the user has any grant on the organism.
func (u User) HasOrganismGrant(organism string) bool {
	_, ok := u.Access[organism]
	return ok
}

// LoadUsers parses the users.yaml account file.
func LoadUsers(path string) (map[string]User, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var byName map[string]User
	if err := yaml.Unmarshal(raw, &byName); err != nil {
		return nil, fmt.Errorf("failed to parse user file: %w", err)
	}

	for name, u := range byName {
		u.Name = name
		byName[name] = u
	}
	return byName, nil
}
