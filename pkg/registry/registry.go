// Package registry loads the configuration snapshot the core reads per
// request: which organisms exist on disk, how their assemblies map to groups,
// which assemblies are public, and which users hold which grants.
//
// The snapshot is immutable once loaded. Access decisions change between
// administrative edits, so callers load a fresh snapshot per request instead
// of caching one across requests.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// StoreFileName is the per-organism store file inside each organism directory.
const StoreFileName = "organism.sqlite"

// PublicGroup marks an assembly as visible to everyone. Historic data mixes
// "Public" and "PUBLIC", so membership checks are case-insensitive.
const PublicGroup = "PUBLIC"

// GroupEntry is one row of organism_assembly_groups.json.
type GroupEntry struct {
	Organism string   `json:"organism"`
	Assembly string   `json:"assembly"`
	Groups   []string `json:"groups"`
}

// Snapshot is an immutable view of the registry for one request.
type Snapshot struct {
	dataDir   string
	organisms map[string]bool
	entries   []GroupEntry
	users     map[string]User
}

// Loader builds snapshots from the data directory and metadata files.
type Loader struct {
	dataDir     string
	metadataDir string
	usersFile   string
	logger      *zap.Logger
}

// NewLoader creates a Loader rooted at the given directories.
func NewLoader(dataDir, metadataDir, usersFile string, logger *zap.Logger) *Loader {
	return &Loader{
		dataDir:     dataDir,
		metadataDir: metadataDir,
		usersFile:   usersFile,
		logger:      logger.Named("registry"),
	}
}

// Snapshot loads a fresh registry view. Missing or malformed metadata files
// degrade to an empty group list or user list (nothing public, no grants)
// rather than failing the request; the condition is logged for admins.
func (l *Loader) Snapshot() (*Snapshot, error) {
	organisms, err := l.listOrganisms()
	if err != nil {
		return nil, fmt.Errorf("failed to list organism directories: %w", err)
	}

	snap := &Snapshot{
		dataDir:   l.dataDir,
		organisms: organisms,
		users:     map[string]User{},
	}

	groupsFile := filepath.Join(l.metadataDir, "organism_assembly_groups.json")
	entries, err := loadGroupEntries(groupsFile)
	if err != nil {
		l.logger.Warn("group metadata unavailable, treating all assemblies as private",
			zap.String("file", groupsFile),
			zap.Error(err))
	}
	snap.entries = entries

	users, err := LoadUsers(l.usersFile)
	if err != nil {
		l.logger.Warn("user file unavailable, no collaborator grants active",
			zap.String("file", l.usersFile),
			zap.Error(err))
	}
	snap.users = users

	return snap, nil
}

// listOrganisms scans the data directory for organism directories that carry
// a store file.
func (l *Loader) listOrganisms() (map[string]bool, error) {
	dirEntries, err := os.ReadDir(l.dataDir)
	if err != nil {
		return nil, err
	}

	organisms := make(map[string]bool)
	for _, e := range dirEntries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(l.dataDir, e.Name(), StoreFileName)); err == nil {
			organisms[e.Name()] = true
		}
	}
	return organisms, nil
}

func loadGroupEntries(path string) ([]GroupEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []GroupEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return entries, nil
}

// HasOrganism reports whether the organism exists on disk.
func (s *Snapshot) HasOrganism(organism string) bool {
	return s.organisms[organism]
}

// Organisms returns all organism names on disk, sorted.
func (s *Snapshot) Organisms() []string {
	names := make([]string, 0, len(s.organisms))
	for name := range s.organisms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StorePath returns the store file path for an organism. The path is returned
// even if the file has since disappeared; the store layer reports
// unavailability.
func (s *Snapshot) StorePath(organism string) string {
	return filepath.Join(s.dataDir, organism, StoreFileName)
}

// AssembliesOf returns the assembly names registered for an organism, in file
// order.
func (s *Snapshot) AssembliesOf(organism string) []string {
	var assemblies []string
	for _, e := range s.entries {
		if e.Organism == organism {
			assemblies = append(assemblies, e.Assembly)
		}
	}
	return assemblies
}

// GroupsOf returns the group memberships of one (organism, assembly) pair.
func (s *Snapshot) GroupsOf(organism, assembly string) []string {
	for _, e := range s.entries {
		if e.Organism == organism && e.Assembly == assembly {
			return e.Groups
		}
	}
	return nil
}

// IsPublicAssembly reports whether the assembly is in the public group.
func (s *Snapshot) IsPublicAssembly(organism, assembly string) bool {
	return containsGroup(s.GroupsOf(organism, assembly), PublicGroup)
}

// IsPublicOrganism reports whether any of the organism's assemblies is public.
func (s *Snapshot) IsPublicOrganism(organism string) bool {
	for _, e := range s.entries {
		if e.Organism == organism && containsGroup(e.Groups, PublicGroup) {
			return true
		}
	}
	return false
}

// User looks up a collaborator account by name.
func (s *Snapshot) User(name string) (User, bool) {
	u, ok := s.users[name]
	return u, ok
}

func containsGroup(groups []string, want string) bool {
	for _, g := range groups {
		if strings.EqualFold(g, want) {
			return true
		}
	}
	return false
}
