// Command lambda serves the solver as an AWS Lambda function URL. The body is
// a JSON document {"grid": [[...]], "seed": 1, "time_ms": 2000, "k": 1000};
// everything but the grid is optional.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/vancomm/flattener/internal/anneal"
	"github.com/vancomm/flattener/internal/config"
	"github.com/vancomm/flattener/internal/handlers"
	"github.com/vancomm/flattener/internal/logging"
	"github.com/vancomm/flattener/internal/solve"
	"github.com/vancomm/flattener/internal/textio"
)

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

type server struct {
	log      logrus.FieldLogger
	defaults config.Solver
	limits   solve.Limits
}

func (s server) solver(body []byte) (config.Solver, error) {
	solver := s.defaults
	solver.N = len(gjson.GetBytes(body, "grid").Array())
	if v := gjson.GetBytes(body, "seed"); v.Exists() {
		solver.Seed = v.Uint()
	}
	if v := gjson.GetBytes(body, "time_ms"); v.Exists() {
		solver.TimeBudget = config.Duration{Duration: time.Duration(v.Int()) * time.Millisecond}
	}
	if v := gjson.GetBytes(body, "k"); v.Exists() {
		solver.K = int(v.Int())
	}
	if err := solver.Validate(); err != nil {
		return solver, err
	}
	return solver, s.limits.Check(solver)
}

func (s server) handle(_ context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return errResp(http.StatusBadRequest, "invalid base64 body")
		}
		body = decoded
	}
	if !gjson.ValidBytes(body) {
		return errResp(http.StatusBadRequest, "invalid JSON")
	}

	solver, err := s.solver(body)
	if err != nil {
		return errResp(http.StatusBadRequest, err.Error())
	}
	grid, err := textio.ReadGridJSON(body, solver.N)
	if err != nil {
		return errResp(http.StatusBadRequest, err.Error())
	}

	out, err := solve.Run(solve.Request{Grid: grid, Solver: solver})
	if err != nil {
		s.log.WithError(err).Error("solve failed")
		return errResp(http.StatusInternalServerError, err.Error())
	}
	s.log.WithFields(logrus.Fields{
		"n":     solver.N,
		"k":     solver.K,
		"seed":  out.Seed,
		"score": out.Score,
	}).Info("solved")

	respJSON, err := json.Marshal(handlers.NewSolveDTO(out, nil))
	if err != nil {
		return errResp(http.StatusInternalServerError, err.Error())
	}
	return events.LambdaFunctionURLResponse{StatusCode: http.StatusOK, Headers: jsonHeader, Body: string(respJSON)}, nil
}

func errResp(code int, msg string) (events.LambdaFunctionURLResponse, error) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}

func main() {
	log, err := logging.New(config.Development(), "")
	if err != nil {
		logrus.Fatal(err)
	}
	logging.Adopt(anneal.Log, log)

	defaults := config.DefaultSolver()
	if err := defaults.ApplyEnv(); err != nil {
		log.WithError(err).Fatal("invalid solver config")
	}

	lambda.Start(server{
		log:      log,
		defaults: defaults,
		limits:   solve.DefaultLimits(),
	}.handle)
}

