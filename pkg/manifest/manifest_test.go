package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"mxfauthor/pkg/ident"
	"mxfauthor/pkg/mic"
)

// TestAS02BundleOnePictureTwoSound exercises §8 scenario 4: after
// FinalizeBundle, the directory contains manifest.xml, shim.xml and the
// media directory; the registry holds four entries (the primary version
// and three essence components) under their relative URIs, and the
// finalized MIC value reaches the manifest.
func TestAS02BundleOnePictureTwoSound(t *testing.T) {
	dir := t.TempDir()
	registry := NewRegistry(nil)
	shim, err := NewShimConfig(nil)
	require.NoError(t, err)

	bundle, err := NewBundle(dir, "reel1", registry, shim)
	require.NoError(t, err)

	versionUMID := ident.NewUMID()
	_, versionRel := bundle.PrimaryVersionPath()
	_, err = registry.Register(versionRel, RolePrimaryVersion, versionUMID, mic.None, mic.EssenceOnly)
	require.NoError(t, err)

	pictureUMID := ident.NewUMID()
	_, vRel := bundle.MediaFilePath(true)
	_, err = registry.Register(vRel, RoleEssenceComponent, pictureUMID, mic.CRC32, mic.EssenceOnly)
	require.NoError(t, err)

	sound0UMID := ident.NewUMID()
	_, a0Rel := bundle.MediaFilePath(false)
	_, err = registry.Register(a0Rel, RoleEssenceComponent, sound0UMID, mic.CRC32, mic.EssenceOnly)
	require.NoError(t, err)

	sound1UMID := ident.NewUMID()
	_, a1Rel := bundle.MediaFilePath(false)
	_, err = registry.Register(a1Rel, RoleEssenceComponent, sound1UMID, mic.CRC32, mic.EssenceOnly)
	require.NoError(t, err)

	require.Equal(t, "media/reel1_v0.mxf", vRel)
	require.Equal(t, "media/reel1_a0.mxf", a0Rel)
	require.Equal(t, "media/reel1_a1.mxf", a1Rel)

	require.NoError(t, registry.SetMICValue(vRel, "deadbeef"))

	require.NoError(t, bundle.FinalizeBundle())

	require.FileExists(t, filepath.Join(dir, "manifest.xml"))
	require.FileExists(t, filepath.Join(dir, "shim.xml"))
	require.DirExists(t, filepath.Join(dir, "media"))

	require.Len(t, registry.Entries(), 4)

	manifestBytes, err := os.ReadFile(filepath.Join(dir, "manifest.xml"))
	require.NoError(t, err)
	require.Contains(t, string(manifestBytes), "reel1_v0.mxf")
	require.Contains(t, string(manifestBytes), "deadbeef")
}

// TestLedgerRejectsDuplicateUMID verifies that registering the same
// UMID twice against a bundle directory -- even across two separate
// Registry/Ledger instances simulating a process restart -- is
// rejected, per §3 Invariants "Every file source package's UMID is
// unique within a bundle/clip."
func TestLedgerRejectsDuplicateUMID(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, ".manifest.db")

	ledger1, err := OpenLedger(dbPath)
	require.NoError(t, err)
	registry1 := NewRegistry(ledger1)

	umid := ident.NewUMID()
	_, err = registry1.Register("media/reel1_v0.mxf", RoleEssenceComponent, umid, mic.None, mic.EssenceOnly)
	require.NoError(t, err)
	require.NoError(t, ledger1.Close())

	ledger2, err := OpenLedger(dbPath)
	require.NoError(t, err)
	defer ledger2.Close()
	registry2 := NewRegistry(ledger2)

	_, err = registry2.Register("media/reel1_v0_dup.mxf", RoleEssenceComponent, umid, mic.None, mic.EssenceOnly)
	require.Error(t, err)
}

// TestMediaFilePathNamingIsZeroBased checks the _v<n>/_a<n> essence
// component naming convention of §6.
func TestMediaFilePathNamingIsZeroBased(t *testing.T) {
	dir := t.TempDir()
	bundle, err := NewBundle(dir, "clipA", NewRegistry(nil), mustShim(t))
	require.NoError(t, err)

	_, rel0 := bundle.MediaFilePath(true)
	_, rel1 := bundle.MediaFilePath(true)
	require.Equal(t, "media/clipA_v0.mxf", rel0)
	require.Equal(t, "media/clipA_v1.mxf", rel1)
}

func mustShim(t *testing.T) *ShimConfig {
	shim, err := NewShimConfig(nil)
	require.NoError(t, err)
	return shim
}
