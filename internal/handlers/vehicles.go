package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"neurofleet-console/internal/gateway"
	"neurofleet-console/internal/models"
	"neurofleet-console/pkg/utils"

	"github.com/go-chi/chi/v5"
)

func ListVehicles(api *gateway.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFrom(w, r)
		if !ok {
			return
		}

		vehicles := []models.Vehicle{}
		if _, err := api.WithStore(store).Get(r.Context(), "/vehicles", &vehicles); err != nil {
			respondError(w, r, err)
			return
		}
		utils.JSON(w, http.StatusOK, vehicles)
	}
}

func decodeVehicleRequest(w http.ResponseWriter, r *http.Request) (models.VehicleRequest, bool) {
	var req models.VehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return req, false
	}
	return req, true
}

// vehiclePath validates the {id} parameter and builds the backend path.
func vehiclePath(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := strconv.Atoi(id); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid vehicle id")
		return "", false
	}
	return "/vehicles/" + url.PathEscape(id), true
}

func CreateVehicle(api *gateway.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFrom(w, r)
		if !ok {
			return
		}
		req, ok := decodeVehicleRequest(w, r)
		if !ok {
			return
		}

		res, err := api.WithStore(store).Post(r.Context(), "/vehicles", req, nil)
		if err != nil {
			respondError(w, r, err)
			return
		}
		relay(w, res)
	}
}

func UpdateVehicle(api *gateway.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFrom(w, r)
		if !ok {
			return
		}
		path, ok := vehiclePath(w, r)
		if !ok {
			return
		}
		req, ok := decodeVehicleRequest(w, r)
		if !ok {
			return
		}

		res, err := api.WithStore(store).Put(r.Context(), path, req, nil)
		if err != nil {
			respondError(w, r, err)
			return
		}
		relay(w, res)
	}
}

func DeleteVehicle(api *gateway.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFrom(w, r)
		if !ok {
			return
		}
		path, ok := vehiclePath(w, r)
		if !ok {
			return
		}

		res, err := api.WithStore(store).Delete(r.Context(), path, nil)
		if err != nil {
			respondError(w, r, err)
			return
		}
		relay(w, res)
	}
}
