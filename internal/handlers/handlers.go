package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

func SendJSON(w http.ResponseWriter, v any) (int, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	w.Header().Set("Content-Type", "application/json")
	return w.Write(payload)
}

func sendJSONOrLog(w http.ResponseWriter, log logrus.FieldLogger, v any) {
	_, err := SendJSON(w, v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		log.WithError(err).WithField("response", v).Error("unable to send response")
	}
}

func sendErrorOrLog(w http.ResponseWriter, log logrus.FieldLogger, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, sendErr := SendJSON(w, wrapError(err)); sendErr != nil {
		log.WithError(sendErr).WithField("sent_error", err).Error("unable to send error message")
	}
}

func wrapError(err error) map[string]string {
	return map[string]string{
		"error": err.Error(),
	}
}
