package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// maxUploadSize caps pic uploads at 16 MiB
const maxUploadSize = 16 << 20

// UploadPic handles POST /api/upload/pic (admin only). The pic travels
// as the "pic" part of a multipart form; the session pair travels in
// headers since the body is not JSON here.
func (h *Handlers) UploadPic(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminSession(w, r, nil); !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.jsonError(w, "malformed multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("pic")
	if err != nil {
		h.jsonError(w, "pic part not found", http.StatusBadRequest)
		return
	}
	defer file.Close()

	name, err := h.pics.Save(header.Filename, file)
	if err != nil {
		log.Error().Err(err).Str("filename", header.Filename).Msg("Failed to store pic")
		h.jsonError(w, "failed to store pic", http.StatusInternalServerError)
		return
	}

	log.Info().Str("pic", name).Msg("Pic uploaded")
	h.writeJSON(w, http.StatusOK, map[string]string{"pic": name})
}

// Events handles GET /api/events (admin only). After the privilege
// check the connection is upgraded to a websocket fed by the catalog
// event hub.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminSession(w, r, nil); !ok {
		return
	}
	if h.hub == nil {
		h.jsonError(w, "events not available", http.StatusServiceUnavailable)
		return
	}
	h.hub.ServeHTTP(w, r)
}
