package model

import (
	"fmt"
	"runtime"
)

// Capability describes what the annotator supports
type Capability struct {
	// List of supported languages, ISO 639-1 codes. Empty means any.
	SupportedLanguages []string `json:"supported_languages"`

	// Whether results on the same inputs are reproducible without side effects
	Reproducible bool `json:"reproducible"`
}

// Documentation is served on /v1/documentation. It is built once at startup
// and never mutated afterwards.
type Documentation struct {
	AnnotatorName          string            `json:"annotator_name"`
	Version                string            `json:"version"`
	ImplementationLang     *string           `json:"implementation_lang"`
	Meta                   map[string]string `json:"meta"`
	DockerContainerID      *string           `json:"docker_container_id"`
	Parameters             map[string]string `json:"parameters"`
	Capability             Capability        `json:"capability"`
	ImplementationSpecific *string           `json:"implementation_specific"`
}

// Version is the annotator version, overridden at build time via -ldflags
var Version = "0.1.0"

// NewDocumentation builds the documentation value for the given configuration
// and the name of the active NER backend
func NewDocumentation(cfg AnnotatorConfig, backend string, reproducible bool) Documentation {
	lang := fmt.Sprintf("Go %s", runtime.Version())

	name := cfg.Name
	if name == "" {
		name = "duui-ner"
	}
	version := cfg.Version
	if version == "" {
		version = Version
	}

	meta := map[string]string{"backend": backend}
	for k, v := range cfg.Meta {
		meta[k] = v
	}

	var containerID *string
	if cfg.DockerContainerID != "" {
		id := cfg.DockerContainerID
		containerID = &id
	}

	var params map[string]string
	if len(cfg.Parameters) > 0 {
		params = make(map[string]string, len(cfg.Parameters))
		for k, v := range cfg.Parameters {
			params[k] = v
		}
	}

	languages := make([]string, len(cfg.SupportedLanguages))
	copy(languages, cfg.SupportedLanguages)

	return Documentation{
		AnnotatorName:      name,
		Version:            version,
		ImplementationLang: &lang,
		Meta:               meta,
		DockerContainerID:  containerID,
		Parameters:         params,
		Capability: Capability{
			SupportedLanguages: languages,
			Reproducible:       reproducible,
		},
	}
}
