package auth

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type usersFile struct {
	Users []struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Email    string `yaml:"email"`
		Role     Role   `yaml:"role"`
	} `yaml:"users"`
}

// SeedFromFile creates the users listed in a YAML file if they do not
// exist yet. It is how the first admin account gets provisioned.
func (s *Service) SeedFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read users file: %w", err)
	}
	var uf usersFile
	if err := yaml.Unmarshal(data, &uf); err != nil {
		return fmt.Errorf("parse users file: %w", err)
	}

	for _, entry := range uf.Users {
		if entry.Username == "" || entry.Password == "" {
			continue
		}
		role := entry.Role
		if !role.Valid() {
			role = RoleUser
		}
		if _, err := s.users.GetByUsername(ctx, entry.Username); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		hash, err := s.hasher.Hash(entry.Password)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}
		u := &User{
			Username:     entry.Username,
			PasswordHash: hash,
			Email:        entry.Email,
			Role:         role,
		}
		if err := s.users.Create(ctx, u); err != nil && !errors.Is(err, ErrUsernameTaken) {
			return fmt.Errorf("seed user %q: %w", entry.Username, err)
		}
	}
	return nil
}
