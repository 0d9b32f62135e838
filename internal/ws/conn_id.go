package ws

import "github.com/google/uuid"

func newConnID() string {
	return "ws-" + uuid.NewString()
}
