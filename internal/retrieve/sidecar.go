// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// sidecarRecord is the YAML document written next to each PDF.
type sidecarRecord struct {
	Metadata *types.PaperMetadata `yaml:"metadata"`
	Source   string               `yaml:"source"`
	Attempts []types.Attempt      `yaml:"attempts,omitempty"`
}

// SidecarPath returns the metadata sidecar path for a PDF: same name
// with a .yaml extension.
func SidecarPath(pdfPath string) string {
	return strings.TrimSuffix(pdfPath, ".pdf") + ".yaml"
}

// WriteSidecar writes the metadata sidecar for a downloaded PDF. A
// retrieval without resolved metadata writes nothing.
func WriteSidecar(pdfPath string, result *types.RetrievalResult) error {
	if result.Metadata == nil {
		return nil
	}

	doc, err := yaml.Marshal(sidecarRecord{
		Metadata: result.Metadata,
		Source:   result.Source,
		Attempts: result.Attempts,
	})
	if err != nil {
		return fmt.Errorf("marshaling sidecar: %w", err)
	}

	if err := os.WriteFile(SidecarPath(pdfPath), doc, 0o644); err != nil {
		return fmt.Errorf("writing sidecar: %w", err)
	}
	return nil
}
