// Package jobs resolves job identifiers to the descriptions used for matching.
package jobs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrNotFound = errors.New("job not found")

type Job struct {
	ID          string `mapstructure:"id" json:"id"`
	Title       string `mapstructure:"title" json:"title"`
	Description string `mapstructure:"description" json:"description"`
}

// Catalog is a read-only set of jobs loaded from configuration.
type Catalog struct {
	jobs map[string]Job
}

// NewCatalog rejects jobs without an id and duplicate ids.
func NewCatalog(list []Job) (*Catalog, error) {
	c := &Catalog{jobs: make(map[string]Job, len(list))}
	for i, job := range list {
		id := strings.TrimSpace(job.ID)
		if id == "" {
			return nil, fmt.Errorf("job #%d has no id", i)
		}
		if _, dup := c.jobs[id]; dup {
			return nil, fmt.Errorf("duplicate job id %q", id)
		}
		job.ID = id
		c.jobs[id] = job
	}
	return c, nil
}

func (c *Catalog) Get(id string) (Job, error) {
	if c != nil {
		if job, ok := c.jobs[strings.TrimSpace(id)]; ok {
			return job, nil
		}
	}
	return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Description returns the text fed to the analyzer. A job without a
// description falls back to its title.
func (c *Catalog) Description(id string) (string, error) {
	job, err := c.Get(id)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(job.Description) != "" {
		return job.Description, nil
	}
	return job.Title, nil
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.jobs)
}

// List returns all jobs ordered by id.
func (c *Catalog) List() []Job {
	if c == nil {
		return nil
	}
	list := make([]Job, 0, len(c.jobs))
	for _, job := range c.jobs {
		list = append(list, job)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}
