package host

import (
	"bytes"
	_ "embed"
	"net/http"
)

//go:embed assets/lsv-booking.js
var elementScript []byte

const baseURLPlaceholder = "__LSV_BASE_URL__"

// loaderScript returns the element script bound to baseURL. An empty baseURL
// makes the script connect back to the origin it was loaded from.
func loaderScript(baseURL string) []byte {
	return bytes.ReplaceAll(elementScript, []byte(baseURLPlaceholder), []byte(baseURL))
}

// HandleLoaderJS serves the script that defines the <lsv-booking> element.
func (h *Handler) HandleLoaderJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_, _ = w.Write(h.loaderJS)
}
