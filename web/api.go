package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"

	"lrs/events"
	"lrs/index"
	ownIo "lrs/io"
	"lrs/locate"
	"lrs/route"
)

// locateRequest is one event row in the body of a /locate request.
type locateRequest struct {
	RouteID      string   `json:"routeId"`
	BeginMeasure float64  `json:"beginMeasure"`
	EndMeasure   *float64 `json:"endMeasure"`
}

type snapResponse struct {
	RouteID  string  `json:"routeId"`
	Measure  float64 `json:"measure"`
	Distance float64 `json:"distance"`
}

func StartServer(port string, routeIndex *index.RouteIndex, locator *locate.Locator, snapper *locate.Snapper, workers int) {
	r := initRouter(routeIndex, locator, snapper, workers)
	sigolo.Infof("Start server on port %s", port)
	err := http.ListenAndServe(":"+port, r)
	sigolo.FatalCheck(err)
}

func initRouter(routeIndex *index.RouteIndex, locator *locate.Locator, snapper *locate.Snapper, workers int) *mux.Router {
	processor := &events.Processor{Workers: workers}

	r := mux.NewRouter()
	r.HandleFunc("/locate", func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Access-Control-Allow-Origin", "*")

		body, err := io.ReadAll(request.Body)
		if err != nil {
			sigolo.Errorf("Error reading HTTP body of request to '/locate': %+v", err)
			writeError(writer, http.StatusInternalServerError, "Error reading HTTP body.")
			return
		}

		var rows []locateRequest
		if err = json.Unmarshal(body, &rows); err != nil {
			sigolo.Errorf("Error parsing locate request: %+v", err)
			writeError(writer, http.StatusBadRequest, fmt.Sprintf("Error parsing locate request: %+v", err))
			return
		}

		mask := route.MaskAll
		if maskParam := request.URL.Query().Get("mask"); maskParam != "" {
			mask, err = route.MaskFromString(maskParam)
			if err != nil {
				writeError(writer, http.StatusBadRequest, fmt.Sprintf("Error parsing mask: %+v", err))
				return
			}
		}

		table := requestTable(rows)
		located, err := processor.Run(request.Context(), table, &events.LocateOperation{
			Locator: locator,
			Mask:    mask,
		})
		if err != nil && err != context.Canceled {
			sigolo.Errorf("Error locating events: %+v", err)
			writeError(writer, http.StatusInternalServerError, fmt.Sprintf("Error locating events: %+v", err))
			return
		}

		sigolo.Debugf("Located %d events", len(located))

		if err = ownIo.WriteLocatedEvents(located, writer); err != nil {
			sigolo.Errorf("Error writing locate result: %+v", err)
			writeError(writer, http.StatusInternalServerError, fmt.Sprintf("Error writing locate result: %+v", err))
		}
	}).Methods(http.MethodPost)

	r.HandleFunc("/snap", func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Access-Control-Allow-Origin", "*")

		x, errX := strconv.ParseFloat(request.URL.Query().Get("x"), 64)
		y, errY := strconv.ParseFloat(request.URL.Query().Get("y"), 64)
		if errX != nil || errY != nil {
			writeError(writer, http.StatusBadRequest, "Query parameters 'x' and 'y' must be numbers.")
			return
		}

		radius := snapper.Radius
		if radiusParam := request.URL.Query().Get("radius"); radiusParam != "" {
			var err error
			radius, err = strconv.ParseFloat(radiusParam, 64)
			if err != nil {
				writeError(writer, http.StatusBadRequest, "Query parameter 'radius' must be a number.")
				return
			}
		}

		result, ok := routeIndex.Nearest(orb.Point{x, y}, radius)
		if !ok {
			writeError(writer, http.StatusNotFound, fmt.Sprintf("No route within radius %v of point (%v, %v).", radius, x, y))
			return
		}

		writer.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(writer).Encode(snapResponse{
			RouteID:  result.RouteID.String(),
			Measure:  result.Measure,
			Distance: result.Distance,
		})
		if err != nil {
			sigolo.Errorf("Error writing snap result: %+v", err)
		}
	}).Methods(http.MethodGet)

	return r
}

func writeError(writer http.ResponseWriter, status int, message string) {
	writer.WriteHeader(status)
	if _, err := writer.Write([]byte(message)); err != nil {
		sigolo.Errorf("Error writing error response: %+v", err)
	}
}

// requestTable adapts a locate request body to the events.Table collaborator.
type requestTable []locateRequest

func (t requestTable) Rows() ([]events.Row, error) {
	rows := make([]events.Row, len(t))
	for i, request := range t {
		rows[i] = events.Row{
			OID:          i + 1,
			RouteID:      request.RouteID,
			BeginMeasure: request.BeginMeasure,
			EndMeasure:   request.EndMeasure,
		}
	}
	return rows, nil
}
