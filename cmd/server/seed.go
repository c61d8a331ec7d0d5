package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
	"github.com/fairyhunter13/ai-cv-fairness/internal/usecase"
)

type seedYAML struct {
	Jobs []seedJob `yaml:"jobs"`
}

type seedJob struct {
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	RoleContext string          `yaml:"role_context"`
	Rubric      []seedRubric    `yaml:"rubric"`
	Candidates  []seedCandidate `yaml:"candidates"`
}

type seedRubric struct {
	Key         string  `yaml:"key"`
	Weight      float64 `yaml:"weight"`
	Description string  `yaml:"description"`
}

type seedCandidate struct {
	DisplayName string `yaml:"display_name"`
	CVText      string `yaml:"cv_text"`
}

// seedResult maps each seeded job id to its candidate ids.
type seedResult map[string][]string

// seedFromYAML loads demo jobs and candidates from path through the usecase services.
func seedFromYAML(ctx domain.Context, jobs usecase.JobService, cands usecase.CandidateService, path string) (seedResult, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("seed file not found: %s", path)
		}
		return nil, err
	}
	var doc seedYAML
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("yaml parse: %w", err)
	}
	if len(doc.Jobs) == 0 {
		return nil, fmt.Errorf("no jobs to seed in %s", path)
	}

	out := seedResult{}
	for _, j := range doc.Jobs {
		rubric := make([]domain.RubricItem, 0, len(j.Rubric))
		for _, r := range j.Rubric {
			rubric = append(rubric, domain.RubricItem{Key: r.Key, Weight: r.Weight, Description: r.Description})
		}
		jobID, err := jobs.Create(ctx, usecase.JobInput{
			Title:       j.Title,
			Description: j.Description,
			Rubric:      rubric,
			RoleContext: j.RoleContext,
		})
		if err != nil {
			return nil, fmt.Errorf("seed job %q: %w", j.Title, err)
		}
		in := make([]usecase.CandidateInput, 0, len(j.Candidates))
		for _, c := range j.Candidates {
			if strings.TrimSpace(c.CVText) == "" {
				continue
			}
			ci := usecase.CandidateInput{CVText: c.CVText}
			if name := strings.TrimSpace(c.DisplayName); name != "" {
				ci.DisplayName = &name
			}
			in = append(in, ci)
		}
		var ids []string
		if len(in) > 0 {
			if ids, err = cands.AddBatch(ctx, jobID, in); err != nil {
				return nil, fmt.Errorf("seed candidates for %q: %w", j.Title, err)
			}
		}
		out[jobID] = ids
	}
	return out, nil
}
