package repository

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/profilebot/profilebot/internal/logger"
	"github.com/profilebot/profilebot/internal/profile"
)

// seedProfile is one entry of a YAML seed file.
type seedProfile struct {
	UserName               string `yaml:"userName"`
	Type                   string `yaml:"type"`
	ProfileTarget          string `yaml:"profileTarget"`
	Password               string `yaml:"password"`
	UserDataPath           string `yaml:"userDataPath"`
	LinkedResourceUserName string `yaml:"linkedResourceUserName"`
	DueTasks               []struct {
		Module string `yaml:"module"`
		Action string `yaml:"action"`
		Args   string `yaml:"args"`
	} `yaml:"dueTasks"`
}

// ImportYAML seeds profiles from a YAML file. Entries whose userName already
// exists are skipped with a warning; the number of created profiles is
// returned.
func (r *Repository) ImportYAML(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seeds []seedProfile
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return 0, fmt.Errorf("failed to parse seed file: %w", err)
	}

	created := 0
	for _, seed := range seeds {
		t := profile.Type("")
		if seed.Type != "" {
			t = profile.ParseType(seed.Type)
		}
		p := profile.New(seed.UserName, t)
		p.ProfileTarget = seed.ProfileTarget
		p.Password = seed.Password
		p.UserDataPath = seed.UserDataPath
		p.LinkedResourceUserName = seed.LinkedResourceUserName
		for _, t := range seed.DueTasks {
			p.AddTask(profile.NewTask(t.Module, t.Action, t.Args))
		}

		if _, err := r.Create(p); err != nil {
			if errors.Is(err, ErrDuplicateKey) {
				r.logger.Warn("seed profile already exists, skipping",
					logger.Field{Key: "user_name", Value: p.UserName})
				continue
			}
			return created, err
		}
		created++
	}

	return created, nil
}
