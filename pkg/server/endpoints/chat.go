package endpoints

import (
	"net/http"

	"github.com/appboardguru/boardguru/pkg/server"
	"github.com/appboardguru/boardguru/pkg/service"
)

// RegisterChatEndpoint registers the board assistant route
func RegisterChatEndpoint(s *server.Server) {
	authenticated(s).HandleFunc("/organizations/{orgID}/chat", handle(handleChat(s.Services.Chat))).Methods("POST")
}

func handleChat(chat *service.ChatService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		var in service.ChatInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		reply, err := chat.Ask(r.Context(), id, pathVar(r, "orgID"), in)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, reply)
	}
}
