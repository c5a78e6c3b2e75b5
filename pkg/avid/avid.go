// Package avid implements the Avid-flavored per-track MXF surface of
// §6 "Avid flavor": 1-based per-track file naming, the material
// package's _PJ project-name/user-comment extension attributes, and
// the DM event track that carries the Clip Coordinator's locators.
// Grounded on the teacher's pkg/video/mp4muxer/muxer.go multi-track
// interleave, generalized here from one shared essence container to
// one physical file per essence track, plus the fixed-palette/
// DMSegment model of §4.5.
package avid

import (
	"fmt"
	"path/filepath"

	"mxfauthor/pkg/clip"
	"mxfauthor/pkg/metadata"
)

// MediaFileName returns the 1-based per-track file name of §6 "Per-
// track file naming <prefix>_v<n>.mxf / <prefix>_a<n>.mxf (1-based)."
// n is the 1-based track-within-kind index.
func MediaFileName(prefix string, isPicture bool, n int) string {
	suffix := "a"
	if isPicture {
		suffix = "v"
	}
	return fmt.Sprintf("%s_%s%d.mxf", prefix, suffix, n)
}

// MediaFilePath joins dir and the 1-based per-track file name.
func MediaFilePath(dir, prefix string, isPicture bool, n int) string {
	return filepath.Join(dir, MediaFileName(prefix, isPicture, n))
}

// AssignFileNames derives a 1-based file name for every bound track,
// in the coordinator's pictures-first sort order, per §6.
func AssignFileNames(dir, prefix string, bindings []*clip.TrackBinding) map[*clip.TrackBinding]string {
	names := make(map[*clip.TrackBinding]string, len(bindings))
	pictureN, soundN := 1, 1
	for _, b := range bindings {
		if b.IsPicture {
			names[b] = MediaFilePath(dir, prefix, true, pictureN)
			pictureN++
		} else {
			names[b] = MediaFilePath(dir, prefix, false, soundN)
			soundN++
		}
	}
	return names
}

// SetProjectAttributes attaches the Avid _PJ project-name extension
// attribute and a user comment to the material package, per §6 "The
// material package carries Avid extension attributes _PJ (project
// name) and user comments."
func SetProjectAttributes(store *metadata.Store, coord *clip.Coordinator, projectName, userComment string) {
	material := coord.MaterialPackage()
	if material == nil {
		return
	}
	store.SetAvidAttributes(material, projectName, userComment)
}

// EmitLocatorTrack attaches one DM event track, wrapping the
// coordinator's accumulated locators, to the material package, per
// §4.5 "Avid locator emission: if locators are present, attach one DM
// event track per per-track header-metadata copy" -- because every
// Avid per-track physical file in this engine shares one metadata
// arena (§5 "each track carries its own copy for per-file emission"
// is realized by every file serializing the same arena), a single DM
// event track registered once is present in every emitted copy. No-op
// if AddLocator was never called.
func EmitLocatorTrack(store *metadata.Store, coord *clip.Coordinator, trackID uint32) *metadata.Track {
	locatorClip := coord.LocatorClip()
	if locatorClip == nil {
		return nil
	}
	material := coord.MaterialPackage()
	if material == nil {
		return nil
	}
	return store.NewEventTrack(material, trackID, locatorClip)
}
