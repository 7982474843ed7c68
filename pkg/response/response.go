// Package response defines the JSON error bodies returned by the HTTP API.
package response

import (
	"net/http"

	"github.com/go-chi/render"
)

type Response struct {
	StatusCode int      `json:"-"`
	Error      string   `json:"error"`
	Details    []string `json:"details,omitempty"`
	Path       string   `json:"path,omitempty"`
}

var EmptyRequestBody = Response{
	StatusCode: http.StatusBadRequest,
	Error:      "Request body is empty",
}

var InvalidRequestBody = Response{
	StatusCode: http.StatusBadRequest,
	Error:      "Invalid request body",
}

var URLRequired = Response{
	StatusCode: http.StatusBadRequest,
	Error:      "URL is required",
}

var URLNotFound = Response{
	StatusCode: http.StatusNotFound,
	Error:      "URL not found",
}

var ServerError = Response{
	StatusCode: http.StatusInternalServerError,
	Error:      "Internal server error",
}

func InvalidData(details []string) Response {
	return Response{
		StatusCode: http.StatusBadRequest,
		Error:      "Invalid data",
		Details:    details,
	}
}

func RouteNotFound(path string) Response {
	return Response{
		StatusCode: http.StatusNotFound,
		Error:      "Route not found",
		Path:       path,
	}
}

// Render writes resp as JSON with its status code.
func Render(w http.ResponseWriter, r *http.Request, resp Response) {
	render.Status(r, resp.StatusCode)
	render.JSON(w, r, resp)
}
