package manifest

import (
	"encoding/xml"
	"fmt"
	"os"

	"mxfauthor/pkg/mic"
)

// manifestXML is the on-disk shape of manifest.xml, per §3 "Manifest
// File Entry" and §6's bundle layout. No XML library appears anywhere
// in the retrieved corpus, so encoding/xml is the grounded choice
// here (see DESIGN.md).
type manifestXML struct {
	XMLName xml.Name       `xml:"manifest"`
	Files   []manifestFile `xml:"file"`
}

type manifestFile struct {
	RelativeURI string `xml:"relativeUri,attr"`
	Role        string `xml:"role,attr"`
	ID          string `xml:"id,attr"`
	MICType     string `xml:"micType,attr,omitempty"`
	MICScope    string `xml:"micScope,attr,omitempty"`
	MICValue    string `xml:"micValue,attr,omitempty"`
}

func micTypeString(t mic.Type) string {
	switch t {
	case mic.CRC32:
		return "CRC32"
	case mic.MD5:
		return "MD5"
	case mic.SHA1:
		return "SHA1"
	default:
		return ""
	}
}

func micScopeString(s mic.Scope) string {
	if s == mic.EntireFile {
		return "ENTIRE_FILE"
	}
	return "ESSENCE_ONLY"
}

// WriteManifestXML serializes the registry's entries as manifest.xml
// at b.Dir/manifest.xml, per §6.
func (b *Bundle) WriteManifestXML() error {
	doc := manifestXML{}
	for _, e := range b.Registry.Entries() {
		f := manifestFile{
			RelativeURI: e.RelativeURI,
			Role:        e.Role.String(),
			ID:          fmt.Sprintf("%x", e.ID),
		}
		if e.MICType != mic.None {
			f.MICType = micTypeString(e.MICType)
			f.MICScope = micScopeString(e.MICScope)
			f.MICValue = e.MICValue
		}
		doc.Files = append(doc.Files, f)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: marshal manifest.xml: %w", err)
	}
	out = append([]byte(xml.Header), out...)

	path := b.Dir + "/manifest.xml"
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("manifest: write manifest.xml: %w", err)
	}
	return nil
}

// shimXML is the on-disk shape of shim.xml.
type shimXML struct {
	XMLName           xml.Name `xml:"shim"`
	ApplicationFormat string   `xml:"applicationFormat"`
	ShimName          string   `xml:"shimName"`
	Description       string   `xml:"description,omitempty"`
}

// WriteShimXML serializes b.Shim as shim.xml at b.Dir/shim.xml.
func (b *Bundle) WriteShimXML() error {
	doc := shimXML{
		ApplicationFormat: b.Shim.ApplicationFormat,
		ShimName:          b.Shim.ShimName,
		Description:       b.Shim.Description,
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: marshal shim.xml: %w", err)
	}
	out = append([]byte(xml.Header), out...)

	path := b.Dir + "/shim.xml"
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("manifest: write shim.xml: %w", err)
	}
	return nil
}

// FinalizeBundle writes manifest.xml and shim.xml after every track
// writer has completed, per §8 scenario 4 "After FinalizeBundle, the
// directory contains manifest.xml, shim.xml, ...".
func (b *Bundle) FinalizeBundle() error {
	if err := b.WriteManifestXML(); err != nil {
		return err
	}
	return b.WriteShimXML()
}
