// ABOUTME: Project domain model identifies the wiki a revision belongs to
// ABOUTME: Provides the eligibility check applied before any counter API request

package domain

import (
	"strings"

	coreerrors "refcounter-api/core/errors"
)

// ExcludedProject is the one project the references counter does not serve
const ExcludedProject = "wikidata"

// Project is the (project, language) pair of a wiki, e.g. wiktionary/es.
// Language is empty for multilingual projects.
type Project struct {
	// Project is the project code (wikipedia, wiktionary, ...)
	Project string

	// Language is the language code, empty when the project has none
	Language string
}

// NewProject builds a Project from raw codes, trimming whitespace
func NewProject(project, language string) Project {
	return Project{
		Project:  strings.TrimSpace(project),
		Language: strings.TrimSpace(language),
	}
}

// HasLanguage reports whether the project carries a language code
func (p Project) HasLanguage() bool {
	return p.Language != ""
}

// String renders the project as language.project, or just project
func (p Project) String() string {
	if !p.HasLanguage() {
		return p.Project
	}
	return p.Language + "." + p.Project
}

// ValidateProject rejects projects the counting service cannot answer for
func ValidateProject(p Project) error {
	if p.Project == ExcludedProject {
		return &coreerrors.InvalidProjectError{Project: p.Project}
	}
	return nil
}
