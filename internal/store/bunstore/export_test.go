package bunstore

import repository "github.com/goliatone/go-repository-bun"

func (s *Store) Repository() repository.Repository[*deviceRecord] { return s.repo }
