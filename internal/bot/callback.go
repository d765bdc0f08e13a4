// internal/bot/callback.go
package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const answerPrefix = "ans"

var ErrMalformedCallback = errors.New("malformed callback data")

// EncodeAnswer builds the payload carried by a choice button.
func EncodeAnswer(eventID uint, label string) string {
	return fmt.Sprintf("%s|%d|%s", answerPrefix, eventID, label)
}

// ParseAnswer reverses EncodeAnswer. The label may itself contain "|".
func ParseAnswer(data string) (uint, string, error) {
	parts := strings.SplitN(data, "|", 3)
	if len(parts) != 3 || parts[0] != answerPrefix || parts[2] == "" {
		return 0, "", ErrMalformedCallback
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || id == 0 {
		return 0, "", ErrMalformedCallback
	}
	return uint(id), parts[2], nil
}
