package socket

import "github.com/google/uuid"

func parseSessionID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}
