package bridge

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// fakeQZ is a minimal QZ Tray websocket endpoint
type fakeQZ struct {
	server *httptest.Server

	mu       sync.Mutex
	printers []string
	printErr string
	silent   bool // never answer calls
	event    bool // send an unsolicited event before each answer
	requests []request
}

func newFakeQZ(t *testing.T, printers ...string) *fakeQZ {
	t.Helper()
	f := &fakeQZ{printers: printers}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeQZ) url() string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http")
}

func (f *fakeQZ) recorded() []request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]request(nil), f.requests...)
}

func (f *fakeQZ) lastCall(name string) (request, bool) {
	reqs := f.recorded()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Call == name {
			return reqs[i], true
		}
	}
	return request{}, false
}

func (f *fakeQZ) handle(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		data, op, err := wsutil.ReadClientData(conn)
		if err != nil {
			return
		}
		if op != ws.OpText {
			continue
		}
		var req request
		if err := json.Unmarshal(data, &req); err != nil {
			return
		}

		f.mu.Lock()
		f.requests = append(f.requests, req)
		silent, event := f.silent, f.event
		f.mu.Unlock()

		if silent {
			continue
		}
		if event {
			_ = wsutil.WriteServerText(conn, []byte(`{"type":"PRINTER","event":{"statusText":"OK"}}`))
		}
		out, _ := json.Marshal(f.answer(req))
		if err := wsutil.WriteServerText(conn, out); err != nil {
			return
		}
	}
}

func (f *fakeQZ) answer(req request) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()

	resp := map[string]interface{}{"uid": req.UID}
	switch req.Call {
	case "":
		// certificate handshake
	case callPrintersFind:
		params, _ := req.Params.(map[string]interface{})
		query, _ := params["query"].(string)
		if query == "" {
			resp["result"] = f.printers
			break
		}
		for _, p := range f.printers {
			if strings.Contains(p, query) {
				resp["result"] = p
				return resp
			}
		}
		resp["error"] = "Specified printer could not be found."
	case callPrint:
		if f.printErr != "" {
			resp["error"] = f.printErr
		}
	default:
		resp["error"] = "Invalid function call: " + req.Call
	}
	return resp
}
