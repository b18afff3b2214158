package out_test

import (
	"net/http"

	monitorout "camwatch/internal/modules/monitor/adapter/out"
)

func httpHandler(hub *monitorout.WebsocketSink) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWebSocket)
	return mux
}
