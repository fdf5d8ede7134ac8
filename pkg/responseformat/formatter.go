package responseformat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgPack = "application/x-msgpack"
)

// ErrEmptyBody is returned by DecodeRequest when the request has no body
var ErrEmptyBody = errors.New("empty request body")

// Formatter handles encoding and writing responses in JSON or MessagePack format
type Formatter struct{}

// NewFormatter creates a new response formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// WriteResponse writes the response in the appropriate format based on the query parameter
// JSON is the default format. MessagePack is used when format=msgpack is specified
func (f *Formatter) WriteResponse(w http.ResponseWriter, req *http.Request, data any, headers map[string]string) error {
	return f.WriteStatus(w, req, http.StatusOK, data, headers)
}

// WriteStatus is WriteResponse with an explicit status code
func (f *Formatter) WriteStatus(w http.ResponseWriter, req *http.Request, status int, data any, headers map[string]string) error {
	for k, v := range headers {
		w.Header().Set(k, v)
	}

	// Always set CORS header
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if wantsMsgPack(req) {
		w.Header().Set("Content-Type", contentTypeMsgPack)
		w.WriteHeader(status)
		return f.writeMsgPack(w, data)
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	return f.writeJSON(w, data)
}

// ErrorBody is the payload of every error response
type ErrorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// WriteError writes an error payload in the requested format
func (f *Formatter) WriteError(w http.ResponseWriter, req *http.Request, status int, kind string, err error) error {
	return f.WriteStatus(w, req, status, ErrorBody{Error: err.Error(), Kind: kind}, nil)
}

// DecodeRequest decodes a request body. A msgpack Content-Type selects
// MessagePack, anything else is read as JSON.
func (f *Formatter) DecodeRequest(req *http.Request, v any) error {
	if req.Body == nil {
		return ErrEmptyBody
	}
	if strings.HasPrefix(req.Header.Get("Content-Type"), contentTypeMsgPack) {
		dec := msgpack.NewDecoder(req.Body)
		dec.SetCustomStructTag("json")
		if err := dec.Decode(v); err != nil {
			if errors.Is(err, io.EOF) {
				return ErrEmptyBody
			}
			return err
		}
		return nil
	}

	dec := json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	return nil
}

func wantsMsgPack(req *http.Request) bool {
	return req.URL.Query().Get("format") == "msgpack"
}

func (f *Formatter) writeJSON(w io.Writer, data any) error {
	return json.NewEncoder(w).Encode(data)
}

func (f *Formatter) writeMsgPack(w io.Writer, data any) error {
	encoder := msgpack.NewEncoder(w)
	encoder.SetCustomStructTag("json") // Use json tags for MessagePack
	return encoder.Encode(data)
}
