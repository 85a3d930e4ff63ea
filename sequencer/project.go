package sequencer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"cyberdrum/config"
)

// projectVersion is written into every save
const projectVersion = 1

const timestampLayout = "2006-01-02_15-04-05"

// Project is one saved bank. ID stays the same across every save of a
// project so renamed folders can still be matched.
type Project struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Version int       `json:"version"`
	SavedAt time.Time `json:"savedAt"`
	State   Snapshot  `json:"state"`
}

// SaveInfo represents a saved project file (for listing)
type SaveInfo struct {
	Filename  string
	Name      string // parsed from filename (empty if unnamed)
	Timestamp time.Time
}

// Store keeps projects as folders of timestamped JSON files under Dir
type Store struct {
	Dir string
}

// DefaultStore returns the store under the config directory
func DefaultStore() (Store, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return Store{}, err
	}
	return Store{Dir: filepath.Join(dir, "projects")}, nil
}

// ProjectDir returns the path to a specific project
func (s Store) ProjectDir(projectName string) string {
	return filepath.Join(s.Dir, sanitizeFilename(projectName))
}

// ListProjects returns all project folder names
func (s Store) ListProjects() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}

	sort.Strings(projects)
	return projects, nil
}

// ListSaves returns timestamped saves for a project, newest first
func (s Store) ListSaves(projectName string) ([]SaveInfo, error) {
	entries, err := os.ReadDir(s.ProjectDir(projectName))
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, err
	}

	var saves []SaveInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if info, ok := parseSaveName(entry.Name()); ok {
			saves = append(saves, info)
		}
	}

	// Newest first; same-second saves fall back to name order
	sort.Slice(saves, func(i, j int) bool {
		if !saves[i].Timestamp.Equal(saves[j].Timestamp) {
			return saves[i].Timestamp.After(saves[j].Timestamp)
		}
		return saves[i].Filename > saves[j].Filename
	})

	return saves, nil
}

// parseSaveName reads 2024-01-15_14-30-00.json or 2024-01-15_14-30-00_name.json
func parseSaveName(filename string) (SaveInfo, bool) {
	if !strings.HasSuffix(filename, ".json") {
		return SaveInfo{}, false
	}
	baseName := strings.TrimSuffix(filename, ".json")
	if len(baseName) < len(timestampLayout) {
		return SaveInfo{}, false
	}

	ts, err := time.ParseInLocation(timestampLayout, baseName[:len(timestampLayout)], time.Local)
	if err != nil {
		return SaveInfo{}, false
	}

	name := ""
	if rest := baseName[len(timestampLayout):]; len(rest) > 1 && rest[0] == '_' {
		name = rest[1:]
	}
	return SaveInfo{Filename: filename, Name: name, Timestamp: ts}, true
}

// Save writes p as a new timestamped file in its project folder. A project
// without an ID gets a fresh one.
func (s Store) Save(p *Project, label string) (SaveInfo, error) {
	if p.Name == "" {
		p.Name = "untitled"
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Version = projectVersion
	p.SavedAt = time.Now()

	dir := s.ProjectDir(p.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return SaveInfo{}, fmt.Errorf("create project dir: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return SaveInfo{}, err
	}

	filename := p.SavedAt.Format(timestampLayout)
	if label != "" {
		filename += "_" + sanitizeFilename(label)
	}
	filename += ".json"

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		return SaveInfo{}, err
	}

	info, _ := parseSaveName(filename)
	return info, nil
}

// Load reads a specific save (or most recent if filename empty). The
// returned snapshot is clamped.
func (s Store) Load(projectName, filename string) (*Project, error) {
	if filename == "" {
		saves, err := s.ListSaves(projectName)
		if err != nil {
			return nil, err
		}
		if len(saves) == 0 {
			return nil, fmt.Errorf("no saves found in project %s", projectName)
		}
		filename = saves[0].Filename
	}

	data, err := os.ReadFile(filepath.Join(s.ProjectDir(projectName), filename))
	if err != nil {
		return nil, err
	}

	p := &Project{State: DefaultSnapshot()}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	if p.Version > projectVersion {
		return nil, fmt.Errorf("%s: unsupported project version %d", filename, p.Version)
	}
	p.State.normalize()
	if p.Name == "" {
		p.Name = projectName
	}
	return p, nil
}

// DeleteSave deletes a specific save file
func (s Store) DeleteSave(projectName, filename string) error {
	return os.Remove(filepath.Join(s.ProjectDir(projectName), filename))
}

// RenameSave renames a save file (changes the name part, keeps timestamp)
func (s Store) RenameSave(projectName, oldFilename, newName string) error {
	info, ok := parseSaveName(oldFilename)
	if !ok {
		return fmt.Errorf("invalid save filename %q", oldFilename)
	}

	newFilename := info.Timestamp.Format(timestampLayout)
	if newName != "" {
		newFilename += "_" + sanitizeFilename(newName)
	}
	newFilename += ".json"

	dir := s.ProjectDir(projectName)
	return os.Rename(filepath.Join(dir, oldFilename), filepath.Join(dir, newFilename))
}

// DeleteProject deletes entire project folder
func (s Store) DeleteProject(name string) error {
	return os.RemoveAll(s.ProjectDir(name))
}

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	name = strings.NewReplacer(
		" ", "-", "/", "-", "\\", "-", ":", "-",
		"*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
	).Replace(name)
	if name == "" || name == "." || name == ".." {
		return "untitled"
	}
	return name
}
