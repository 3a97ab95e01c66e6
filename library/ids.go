package library

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	userIDPrefix  = "usr"
	shelfIDPrefix = "shf"
)

// NewUserID returns a fresh user id such as "usr-V1StGXR8_Z5jdHi6B-myT".
func NewUserID() (string, error) {
	return generateID(userIDPrefix)
}

// NewShelfID returns a fresh shelf id.
func NewShelfID() (string, error) {
	return generateID(shelfIDPrefix)
}

func generateID(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}
