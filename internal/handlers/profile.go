package handlers

import (
	"encoding/json"
	"net/http"

	"neurofleet-console/internal/gateway"
	"neurofleet-console/pkg/utils"
)

func GetProfile(api *gateway.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFrom(w, r)
		if !ok {
			return
		}
		profile, err := api.WithStore(store).Profile(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		utils.JSON(w, http.StatusOK, profile)
	}
}

func UpdateProfile(api *gateway.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFrom(w, r)
		if !ok {
			return
		}

		var req gateway.Profile
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Name == "" {
			utils.FieldError(w, map[string]string{"name": "Name Required"})
			return
		}

		if err := api.WithStore(store).UpdateProfile(r.Context(), req); err != nil {
			respondError(w, r, err)
			return
		}
		utils.JSON(w, http.StatusOK, map[string]string{"message": "Profile updated successfully"})
	}
}
