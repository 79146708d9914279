package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"callmonitor-bridge/internal/common/logging"
	"callmonitor-bridge/internal/phonebook"
)

type lookupResponse struct {
	Number     string             `json:"number"`
	Normalized string             `json:"normalized"`
	Found      bool               `json:"found"`
	Contact    *phonebook.Contact `json:"contact,omitempty"`
}

// Lookup resolves the {number} path variable against the phonebook.
func (h *Handlers) Lookup(w http.ResponseWriter, r *http.Request) {
	number := mux.Vars(r)["number"]
	normalized := phonebook.Normalize(number)
	if normalized == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "number contains no digits"})
		return
	}

	contact, ok := h.directory.Lookup(number)
	resp := lookupResponse{
		Number:     number,
		Normalized: normalized,
		Found:      ok,
		Contact:    contact,
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// RefreshPhonebook reloads the phonebook from the gateway.
func (h *Handlers) RefreshPhonebook(w http.ResponseWriter, r *http.Request) {
	entries, err := h.refresh(r.Context())
	if err != nil {
		h.writeError(w, "Phonebook refresh failed", err)
		return
	}
	h.logger.Info("Phonebook refreshed via API", logging.Int("entries", entries))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"entries": entries,
	})
}

// ExportPhonebook writes the loaded contacts as vCards.
func (h *Handlers) ExportPhonebook(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/vcard; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="phonebook.vcf"`)
	if err := phonebook.WriteVCards(w, h.directory.Contacts()); err != nil {
		h.logger.Error("Failed to export phonebook", err)
	}
}

// ListPhonebooks returns the phonebook IDs known to the gateway.
func (h *Handlers) ListPhonebooks(w http.ResponseWriter, r *http.Request) {
	ids, err := h.gateway.PhonebookList(r.Context())
	if err != nil {
		h.writeError(w, "Failed to list phonebooks", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int{"phonebooks": ids})
}
