// internal/auth/repository.go
package auth

import "errors"

var ErrUnknownOperator = errors.New("unknown operator")

// Repository resolves operator password hashes. The bot has a single
// operator account configured through the environment.
type Repository struct {
	operators map[string]string
}

func NewRepository(username, passwordHash string) *Repository {
	operators := make(map[string]string)
	if username != "" && passwordHash != "" {
		operators[username] = passwordHash
	}
	return &Repository{operators: operators}
}

func (r *Repository) GetPasswordHash(username string) (string, error) {
	hash, ok := r.operators[username]
	if !ok {
		return "", ErrUnknownOperator
	}
	return hash, nil
}

func (r *Repository) Empty() bool {
	return len(r.operators) == 0
}
