package adapter

import (
	"strings"

	"github.com/amishk599/jobber/internal/model"
)

// Site ties a job board's URL pattern to the selectors used to read its postings.
// The same table drives both page classification and recipe lookup.
type Site struct {
	Source  model.Source
	Pattern string // substring of the posting URL, case-sensitive
	Recipe  model.Recipe
}

var sites = []Site{
	{
		Source:  model.SourceLinkedIn,
		Pattern: "linkedin.com/jobs",
		Recipe: model.Recipe{
			Source:      model.SourceLinkedIn,
			Title:       ".job-details-jobs-unified-top-card__job-title",
			Company:     ".job-details-jobs-unified-top-card__company-name",
			Location:    ".job-details-jobs-unified-top-card__bullet",
			Description: ".jobs-description__content",
		},
	},
	{
		Source:  model.SourceIndeed,
		Pattern: "indeed.com/viewjob",
		Recipe: model.Recipe{
			Source:      model.SourceIndeed,
			Title:       `[data-testid="jobsearch-JobInfoHeader-title"]`,
			Company:     `[data-testid="inlineCompanyName"]`,
			Location:    `[data-testid="jobsearch-JobInfoHeader-companyLocation"]`,
			Description: "#jobDescriptionText",
		},
	},
	{
		Source:  model.SourceGlassdoor,
		Pattern: "glassdoor.com/job-listing",
		Recipe: model.Recipe{
			Source:      model.SourceGlassdoor,
			Title:       ".job-title",
			Company:     ".employer-name",
			Location:    ".location",
			Description: ".jobDescriptionContent",
		},
	},
	{
		Source:  model.SourceMonster,
		Pattern: "monster.com/job-detail",
		Recipe: model.Recipe{
			Source:      model.SourceMonster,
			Title:       ".job-title",
			Company:     ".company",
			Location:    ".location",
			Description: ".job-description",
		},
	},
	{
		Source:  model.SourceZipRecruiter,
		Pattern: "ziprecruiter.com/jobs",
		Recipe: model.Recipe{
			Source:      model.SourceZipRecruiter,
			Title:       ".job_title",
			Company:     ".hiring_company_text",
			Location:    ".location",
			Description: ".jobDescriptionSection",
		},
	},
}

// Sites returns a copy of the supported job boards.
func Sites() []Site {
	out := make([]Site, len(sites))
	copy(out, sites)
	return out
}

func lookup(url string) (Site, bool) {
	if url == "" {
		return Site{}, false
	}
	for _, s := range sites {
		if strings.Contains(url, s.Pattern) {
			return s, true
		}
	}
	return Site{}, false
}

// RecipeFor returns the extraction recipe for url. ok is false when no supported
// board matches; callers should skip extraction rather than fail.
func RecipeFor(url string) (model.Recipe, bool) {
	s, ok := lookup(url)
	return s.Recipe, ok
}

// IsSupportedJobPage reports whether url is a posting on a supported job board.
func IsSupportedJobPage(url string) bool {
	_, ok := lookup(url)
	return ok
}

// SourceFor resolves the job board for url, or SourceUnknown.
func SourceFor(url string) model.Source {
	s, ok := lookup(url)
	if !ok {
		return model.SourceUnknown
	}
	return s.Source
}
