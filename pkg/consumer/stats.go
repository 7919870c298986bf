package consumer

import (
	"fmt"
	"net/http"

	"github.com/adjust/rmq/v5"
)

// QueueStatsHandler renders the rmq overview of every open queue
type QueueStatsHandler struct {
	connection rmq.Connection
}

func NewQueueStatsHandler(connection rmq.Connection) *QueueStatsHandler {
	return &QueueStatsHandler{connection: connection}
}

func (handler *QueueStatsHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	layout := request.FormValue("layout")
	refresh := request.FormValue("refresh")

	queues, err := handler.connection.GetOpenQueues()
	if err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}

	stats, err := handler.connection.CollectStats(queues)
	if err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(writer, stats.GetHtml(layout, refresh))
}
