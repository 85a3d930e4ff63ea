package sequencer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadProject(t *testing.T) {
	store := Store{Dir: t.TempDir()}

	st := NewState()
	st.Toggle(0, 0)
	st.Toggle(4, 10)
	st.SetTempo(140)
	require.NoError(t, st.SetChainOrder([]int{0, 1}))

	p := &Project{Name: "my beat", State: st.Snapshot()}
	info, err := store.Save(p, "first take")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "first-take", info.Name)

	projects, err := store.ListProjects()
	require.NoError(t, err)
	assert.Equal(t, []string{"my-beat"}, projects)

	loaded, err := store.Load("my beat", "")
	require.NoError(t, err)
	assert.Equal(t, p.ID, loaded.ID)
	assert.Equal(t, "my beat", loaded.Name)
	assert.Equal(t, st.Snapshot(), loaded.State)
}

func TestSaveKeepsProjectID(t *testing.T) {
	store := Store{Dir: t.TempDir()}
	p := &Project{Name: "demo", State: DefaultSnapshot()}

	_, err := store.Save(p, "a")
	require.NoError(t, err)
	id := p.ID
	_, err = store.Save(p, "b")
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)

	saves, err := store.ListSaves("demo")
	require.NoError(t, err)
	require.Len(t, saves, 2)
	assert.Equal(t, "b", saves[0].Name)
}

func TestLoadMissingProject(t *testing.T) {
	store := Store{Dir: t.TempDir()}
	_, err := store.Load("nothing", "")
	assert.Error(t, err)

	saves, err := store.ListSaves("nothing")
	require.NoError(t, err)
	assert.Empty(t, saves)
}

func TestLoadClampsBadValues(t *testing.T) {
	store := Store{Dir: t.TempDir()}
	dir := store.ProjectDir("hand")
	require.NoError(t, os.MkdirAll(dir, 0755))
	data := `{"id":"x","name":"hand","version":1,"state":{"tempo":5000,"masterVolume":-3,"active":2}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2024-01-15_14-30-00.json"), []byte(data), 0644))

	p, err := store.Load("hand", "")
	require.NoError(t, err)
	assert.Equal(t, 300.0, p.State.Tempo)
	assert.Equal(t, 0.0, p.State.MasterVolume)
	assert.Equal(t, 2, p.State.Active)
	assert.Equal(t, DefaultParams(Tracks[6]), p.State.Params[6])
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	store := Store{Dir: t.TempDir()}
	dir := store.ProjectDir("future")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2024-01-15_14-30-00.json"), []byte(`{"version":99}`), 0644))

	_, err := store.Load("future", "")
	assert.Error(t, err)
}

func TestRenameAndDeleteSave(t *testing.T) {
	store := Store{Dir: t.TempDir()}
	p := &Project{Name: "edit", State: DefaultSnapshot()}
	info, err := store.Save(p, "")
	require.NoError(t, err)

	require.NoError(t, store.RenameSave("edit", info.Filename, "keeper"))
	saves, err := store.ListSaves("edit")
	require.NoError(t, err)
	require.Len(t, saves, 1)
	assert.Equal(t, "keeper", saves[0].Name)

	require.NoError(t, store.DeleteSave("edit", saves[0].Filename))
	saves, err = store.ListSaves("edit")
	require.NoError(t, err)
	assert.Empty(t, saves)

	require.NoError(t, store.DeleteProject("edit"))
	projects, err := store.ListProjects()
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a-b-c", sanitizeFilename("a/b c"))
	assert.Equal(t, "what", sanitizeFilename("what?"))
	assert.Equal(t, "untitled", sanitizeFilename(".."))
}
