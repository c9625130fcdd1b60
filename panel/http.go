package panel

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"

	"github.com/hubertat/opbox"
)

const httpTimeout = 3000 * time.Millisecond

var errBadRequest = errors.New("bad request")

// Handler returns the HTTP API. Indicator and button numbers are 1-based, as
// printed on the box (D1..D8, S1..S8).
func (p *Panel) Handler() http.Handler {
	router := httprouter.New()
	router.GET("/state", p.handleState)
	router.PUT("/indicator/:index/:state", p.handleIndicator)
	router.PUT("/reserved/:state", p.handleReserved)
	router.PUT("/display/:value", p.handleDisplay)
	router.GET("/button/:index", p.handleButton)
	return router
}

// StartHttp serves the API on HttpAddr in the background.
func (p *Panel) StartHttp() {
	p.httpServer = &http.Server{
		Addr:              p.HttpAddr,
		Handler:           p.Handler(),
		ReadTimeout:       httpTimeout,
		ReadHeaderTimeout: httpTimeout,
		WriteTimeout:      httpTimeout,
		IdleTimeout:       2 * httpTimeout,
	}

	go func() {
		err := p.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			p.logger.Error("http server stopped", "err", err)
		}
	}()
	p.logger.Info("http api listening", "addr", p.HttpAddr)
}

func parseIndex(s string) (uint8, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 8 {
		return 0, errors.Wrapf(errBadRequest, "index %q must be 1..8", s)
	}
	return uint8(n - 1), nil
}

func parseState(s string) (bool, error) {
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	on, err := strconv.ParseBool(s)
	if err != nil {
		return false, errors.Wrapf(errBadRequest, "state %q", s)
	}
	return on, nil
}

func (p *Panel) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBadRequest) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p.logger.Error("request failed", "err", err)
	http.Error(w, err.Error(), http.StatusBadGateway)
}

func (p *Panel) writeState(w http.ResponseWriter) {
	snap, err := p.Snapshot()
	if err != nil {
		p.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

func (p *Panel) handleState(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p.writeState(w)
}

func (p *Panel) handleIndicator(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	index, err := parseIndex(params.ByName("index"))
	if err != nil {
		p.writeError(w, err)
		return
	}
	on, err := parseState(params.ByName("state"))
	if err != nil {
		p.writeError(w, err)
		return
	}
	if err = p.SetIndicator(opbox.Indicator(index), on); err != nil {
		p.writeError(w, err)
		return
	}
	p.writeState(w)
}

func (p *Panel) handleReserved(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	on, err := parseState(params.ByName("state"))
	if err != nil {
		p.writeError(w, err)
		return
	}
	if err = p.SetReserved(on); err != nil {
		p.writeError(w, err)
		return
	}
	p.writeState(w)
}

func (p *Panel) handleDisplay(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	display, err := opbox.ParseSegmentDisplay(params.ByName("value"))
	if err != nil {
		p.writeError(w, errors.Wrap(errBadRequest, err.Error()))
		return
	}
	if err = p.SetDisplay(display); err != nil {
		p.writeError(w, err)
		return
	}
	p.writeState(w)
}

func (p *Panel) handleButton(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	index, err := parseIndex(params.ByName("index"))
	if err != nil {
		p.writeError(w, err)
		return
	}
	pressed, err := p.Button(opbox.Button(index))
	if err != nil {
		p.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"pressed": pressed})
}
